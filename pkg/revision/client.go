// Package revision records plan changes as git commits, giving every
// mutation a change reason and a recoverable history.
package revision

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Client wraps git command execution with a file-based lock for
// process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockName string
}

// NewClient creates a revision client for the given plan directory.
// lockName is the lock file created at the plan root while a batch of
// revision commands runs (e.g. ".jamb.lock").
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockName: lockName,
	}
}

// IsInstalled reports whether the git binary is available.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the plan-level lock. It blocks until acquired and
// returns the unlock function.
func (c *Client) Lock() (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockName)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if os.IsExist(err) {
			// Spinlock with backoff. Stale locks from crashed
			// processes must be removed by hand.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
}

// Run executes a raw git command in the plan directory.
// It does NOT take the lock; callers manage that via Lock().
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether the plan directory already has a history.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init starts a fresh history. Safe to re-run.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add stages files for the next revision.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add"}, files...)
	_, err := c.Run(args...)
	return err
}

// Rm removes files from the plan and stages the removal.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-f"}, files...)
	_, err := c.Run(args...)
	return err
}

// Commit records the staged changes with the given change reason.
func (c *Client) Commit(msg string) error {
	_, err := c.Run("commit", "-m", msg)
	return err
}

// Status returns the porcelain status of the plan.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// Entry is one recorded revision.
type Entry struct {
	Hash    string
	When    time.Time
	Subject string
}

// Log returns the most recent revisions, newest first.
func (c *Client) Log(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := c.Run("log", fmt.Sprintf("-%d", limit), "--pretty=format:%H%x09%ct%x09%s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		var unix int64
		if _, err := fmt.Sscanf(parts[1], "%d", &unix); err != nil {
			continue
		}
		entries = append(entries, Entry{
			Hash:    parts[0],
			When:    time.Unix(unix, 0),
			Subject: parts[2],
		})
	}
	return entries, nil
}
