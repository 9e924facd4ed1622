package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veikko/jamb/pkg/adapters/fs"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/revision"
)

// setupRepo creates a repository rooted in a temp plan directory.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string, *revision.Client) {
	t.Helper()

	tmpDir := t.TempDir()
	planPath := filepath.Join(tmpDir, "plan")

	cfg := fs.Config{
		Path:        planPath,
		AutoInit:    true,
		Versionless: true, // versionless by default; override per test
		MustExist:   false,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	client := revision.NewClient(planPath, ".jamb.lock", nil)
	repo := fs.NewRepository(cfg)

	return repo, planPath, client
}

// configureIdentity makes commits work in a bare CI environment.
func configureIdentity(t *testing.T, client *revision.Client) {
	t.Helper()
	if _, err := client.Run("config", "user.email", "plan@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Run("config", "user.name", "plan"); err != nil {
		t.Fatal(err)
	}
}

func wallElement(id string) core.Element {
	return core.Element{
		ID: id,
		Metadata: core.Metadata{
			"level":     "L1",
			"thickness": 0.5,
		},
	}
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		repo, path, _ := setupRepo(t)

		if err := repo.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("expected directory to be created at %s", path)
		}
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _, _ := setupRepo(t, func(c *fs.Config) {
			c.MustExist = true
			c.AutoInit = false
		})

		if err := repo.Initialize(context.Background()); err == nil {
			t.Error("expected Initialize to fail when directory is missing and MustExist=true")
		}
	})

	t.Run("Inits Revision History if AutoInit=true", func(t *testing.T) {
		if !revision.IsInstalled() {
			t.Skip("git not installed")
		}
		repo, path, _ := setupRepo(t, func(c *fs.Config) {
			c.Versionless = false
		})

		if err := repo.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if _, err := os.Stat(filepath.Join(path, ".git")); os.IsNotExist(err) {
			t.Error("expected .git directory to be created")
		}

		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		if err != nil {
			t.Fatalf("expected .gitignore to exist: %v", err)
		}
		if !strings.Contains(string(ignore), ".jamb/") {
			t.Errorf(".gitignore missing system dir entry: %s", ignore)
		}
	})
}

func TestSave(t *testing.T) {
	t.Run("Saves Element as YAML", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		repo.Initialize(context.Background())

		if err := repo.Save(context.Background(), wallElement("walls/north")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		content, err := os.ReadFile(filepath.Join(path, "walls", "north.yaml"))
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if !strings.Contains(string(content), "level: L1") {
			t.Errorf("metadata not found in file content: %s", content)
		}
	})

	t.Run("Rejects Path Traversal IDs", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		repo.Initialize(context.Background())

		for _, id := range []string{"", "/abs", "../escape"} {
			if err := repo.Save(context.Background(), core.Element{ID: id}); err == nil {
				t.Errorf("expected Save to reject ID %q", id)
			}
		}
	})

	t.Run("Fails when Read-Only", func(t *testing.T) {
		repo, _, _ := setupRepo(t, func(c *fs.Config) {
			c.ReadOnly = true
		})
		repo.Initialize(context.Background())

		err := repo.Save(context.Background(), wallElement("walls/ro"))
		if err != core.ErrReadOnly {
			t.Errorf("expected ErrReadOnly, got %v", err)
		}
	})

	t.Run("Records Revision with Change Reason", func(t *testing.T) {
		if !revision.IsInstalled() {
			t.Skip("git not installed")
		}
		repo, _, client := setupRepo(t, func(c *fs.Config) {
			c.Versionless = false
		})
		repo.Initialize(context.Background())
		configureIdentity(t, client)

		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "trace north wall")
		if err := repo.Save(ctx, wallElement("walls/north")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		out, err := client.Run("log", "-1", "--pretty=%B")
		if err != nil {
			t.Fatalf("git log failed: %v", err)
		}
		if out != "trace north wall" {
			t.Errorf("unexpected commit message: %q", out)
		}
	})
}

func TestGet(t *testing.T) {
	repo, path, _ := setupRepo(t)
	repo.Initialize(context.Background())
	repo.Save(context.Background(), wallElement("walls/north"))

	t.Run("Retrieves Existing Element", func(t *testing.T) {
		el, err := repo.Get(context.Background(), "walls/north")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if el.ID != "walls/north" {
			t.Errorf("expected ID 'walls/north', got %q", el.ID)
		}
		if el.Metadata["level"] != "L1" {
			t.Errorf("metadata not round-tripped: %v", el.Metadata)
		}
	})

	t.Run("Falls Back to Alternate Extensions", func(t *testing.T) {
		data := []byte(`{"level": "L2"}`)
		if err := os.MkdirAll(filepath.Join(path, "openings"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(path, "openings", "d1.json"), data, 0644); err != nil {
			t.Fatal(err)
		}

		el, err := repo.Get(context.Background(), "openings/d1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if el.Metadata["level"] != "L2" {
			t.Errorf("expected JSON fallback metadata, got %v", el.Metadata)
		}
	})

	t.Run("Returns ErrNotFound for Missing Element", func(t *testing.T) {
		_, err := repo.Get(context.Background(), "walls/ghost")
		if err == nil {
			t.Fatal("expected error for missing element")
		}
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestList(t *testing.T) {
	repo, path, _ := setupRepo(t)
	repo.Initialize(context.Background())

	t.Run("Lists Empty Plan", func(t *testing.T) {
		els, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(els) != 0 {
			t.Errorf("expected 0 elements, got %d", len(els))
		}
	})

	t.Run("Lists Sorted by ID", func(t *testing.T) {
		repo.Save(context.Background(), wallElement("walls/south"))
		repo.Save(context.Background(), wallElement("walls/north"))

		els, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(els) != 2 {
			t.Fatalf("expected 2 elements, got %d", len(els))
		}
		if els[0].ID != "walls/north" || els[1].ID != "walls/south" {
			t.Errorf("elements not sorted: %v, %v", els[0].ID, els[1].ID)
		}
	})

	t.Run("Skips Corrupt Files", func(t *testing.T) {
		bad := filepath.Join(path, "walls", "bad.yaml")
		if err := os.WriteFile(bad, []byte("\t: not yaml"), 0644); err != nil {
			t.Fatal(err)
		}

		els, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, el := range els {
			if el.ID == "walls/bad" {
				t.Error("corrupt element should be skipped")
			}
		}
	})

	t.Run("Uses Cache on Second Call", func(t *testing.T) {
		els1, _ := repo.List(context.Background())
		els2, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("Second List failed: %v", err)
		}
		if len(els2) != len(els1) {
			t.Error("cache consistency error")
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("Deletes File in Versionless Mode", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		repo.Initialize(context.Background())
		repo.Save(context.Background(), wallElement("walls/gone"))

		if err := repo.Delete(context.Background(), "walls/gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := os.Stat(filepath.Join(path, "walls", "gone.yaml")); !os.IsNotExist(err) {
			t.Error("file should be deleted")
		}
	})

	t.Run("Deletes and Records Revision", func(t *testing.T) {
		if !revision.IsInstalled() {
			t.Skip("git not installed")
		}
		repo, path, client := setupRepo(t, func(c *fs.Config) {
			c.Versionless = false
		})
		repo.Initialize(context.Background())
		configureIdentity(t, client)
		repo.Save(context.Background(), wallElement("walls/gone"))

		if err := repo.Delete(context.Background(), "walls/gone"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := os.Stat(filepath.Join(path, "walls", "gone.yaml")); !os.IsNotExist(err) {
			t.Error("file should be deleted")
		}

		out, err := client.Run("log", "-1", "--pretty=%B")
		if err != nil {
			t.Fatalf("git log failed: %v", err)
		}
		if out != "delete walls/gone" {
			t.Errorf("unexpected commit message: %q", out)
		}
	})
}

func TestReconcile(t *testing.T) {
	repo, path, _ := setupRepo(t)
	repo.Initialize(context.Background())
	ctx := context.Background()

	repo.Save(ctx, wallElement("walls/north"))
	if _, err := repo.List(ctx); err != nil {
		t.Fatal(err)
	}

	// Offline change: a file appears without going through the repo.
	if err := os.WriteFile(filepath.Join(path, "walls", "south.yaml"), []byte("level: L1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	events, err := repo.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}
	if events[0].Type != core.EventCreate || events[0].ID != "walls/south" {
		t.Errorf("unexpected event: %+v", events[0])
	}

	// Offline delete.
	if err := os.Remove(filepath.Join(path, "walls", "south.yaml")); err != nil {
		t.Fatal(err)
	}
	events, err = repo.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != core.EventDelete {
		t.Errorf("expected one delete event, got %v", events)
	}
}
