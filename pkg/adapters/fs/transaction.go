package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/veikko/jamb/pkg/core"
)

// Transaction implements core.Transaction for the filesystem. Changes
// are staged in memory and only touch disk on Commit, which applies
// them under a single lock and records them as one revision.
type Transaction struct {
	repo    *Repository
	staged  map[string]core.Element // ID -> Element
	deleted map[string]bool         // ID -> bool
	mu      sync.Mutex
	closed  bool
}

// NewTransaction creates a new transaction.
func NewTransaction(repo *Repository) *Transaction {
	return &Transaction{
		repo:    repo,
		staged:  make(map[string]core.Element),
		deleted: make(map[string]bool),
	}
}

// Save stages an element for saving.
func (t *Transaction) Save(ctx context.Context, el core.Element) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}
	if err := validateID(el.ID); err != nil {
		return err
	}

	t.staged[el.ID] = el
	delete(t.deleted, el.ID)
	return nil
}

// Get retrieves an element, favoring staged changes.
func (t *Transaction) Get(ctx context.Context, id string) (core.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return core.Element{}, fmt.Errorf("transaction closed")
	}

	if t.deleted[id] {
		return core.Element{}, fmt.Errorf("%s: %w", id, core.ErrNotFound)
	}
	if el, ok := t.staged[id]; ok {
		return el, nil
	}

	// Fallback to repo
	return t.repo.Get(ctx, id)
}

// List returns all elements, overlaying staged changes.
func (t *Transaction) List(ctx context.Context) ([]core.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("transaction closed")
	}

	persisted, err := t.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]core.Element, len(persisted)+len(t.staged))
	for _, el := range persisted {
		if t.deleted[el.ID] {
			continue
		}
		merged[el.ID] = el
	}
	for id, el := range t.staged {
		merged[id] = el
	}

	out := make([]core.Element, 0, len(merged))
	for _, el := range merged {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete stages an element for deletion.
func (t *Transaction) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction closed")
	}

	t.deleted[id] = true
	delete(t.staged, id)
	return nil
}

// Commit applies all staged changes. Writes happen versionless per
// file, then the whole batch is recorded as a single revision carrying
// the change reason.
//
// The all-or-nothing guarantee holds at the revision level, not at the
// filesystem level: each file is written atomically, but if a write
// fails partway through the batch the files already applied stay on
// disk with no revision recorded. In a versioned plan the revision
// history lets such a partial batch be identified and reverted.
func (t *Transaction) Commit(ctx context.Context, changeReason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transaction already closed")
	}
	t.closed = true

	if t.repo.readOnly {
		return core.ErrReadOnly
	}
	if len(t.staged) == 0 && len(t.deleted) == 0 {
		return nil
	}

	versioned := !t.repo.config.Versionless
	if versioned {
		unlock, err := t.repo.rev.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		defer unlock()
	}

	// Apply saves and deletes directly to disk, staging each path.
	for _, el := range t.sortedStaged() {
		if err := t.applySave(el, versioned); err != nil {
			return err
		}
	}
	for _, id := range t.sortedDeleted() {
		if err := t.applyDelete(id, versioned); err != nil {
			return err
		}
	}

	if versioned {
		if changeReason == "" {
			changeReason = "batch transaction"
		}
		if err := t.repo.rev.Commit(changeReason); err != nil {
			return fmt.Errorf("failed to record revision: %w", err)
		}
	}
	return nil
}

// Rollback discards all staged changes.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.staged = make(map[string]core.Element)
	t.deleted = make(map[string]bool)
	return nil
}

func (t *Transaction) sortedStaged() []core.Element {
	out := make([]core.Element, 0, len(t.staged))
	for _, el := range t.staged {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *Transaction) sortedDeleted() []string {
	out := make([]string, 0, len(t.deleted))
	for id := range t.deleted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (t *Transaction) applySave(el core.Element, versioned bool) error {
	fullPath, ext := t.repo.elementPath(el.ID)
	s, ok := t.repo.serializer(ext)
	if !ok {
		return fmt.Errorf("no serializer for %s", ext)
	}

	data, err := s.Serialize(el.Metadata)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", el.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", el.ID, err)
	}

	if versioned {
		rel, err := filepath.Rel(t.repo.Path, fullPath)
		if err != nil {
			return err
		}
		if err := t.repo.rev.Add(rel); err != nil {
			return fmt.Errorf("failed to stage %s: %w", el.ID, err)
		}
	}
	return nil
}

func (t *Transaction) applyDelete(id string, versioned bool) error {
	fullPath, _ := t.repo.elementPath(id)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil // deleting a missing element is a no-op
	}

	if versioned {
		rel, err := filepath.Rel(t.repo.Path, fullPath)
		if err != nil {
			return err
		}
		if err := t.repo.rev.Rm(rel); err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		return nil
	}
	return os.Remove(fullPath)
}
