package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/veikko/jamb/pkg/core"
)

func TestCacheGetSet(t *testing.T) {
	c := newCache(t.TempDir(), ".jamb")
	now := time.Now().Truncate(time.Second)

	entry := &indexEntry{
		ID:           "walls/north",
		Metadata:     core.Metadata{"level": "L1"},
		LastModified: now,
	}
	c.Set("walls/north.yaml", entry)

	t.Run("Hit on Matching Mtime", func(t *testing.T) {
		got, hit := c.Get("walls/north.yaml", now)
		if !hit {
			t.Fatal("expected cache hit")
		}
		if got.ID != "walls/north" {
			t.Errorf("unexpected ID: %q", got.ID)
		}
	})

	t.Run("Miss on Stale Mtime", func(t *testing.T) {
		if _, hit := c.Get("walls/north.yaml", now.Add(time.Second)); hit {
			t.Error("expected miss for changed mtime")
		}
	})

	t.Run("Miss on Unknown Path", func(t *testing.T) {
		if _, hit := c.Get("walls/ghost.yaml", now); hit {
			t.Error("expected miss for unknown path")
		}
	})
}

func TestCachePersistence(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().Truncate(time.Second)

	c := newCache(dir, ".jamb")
	c.Set("walls/north.yaml", &indexEntry{
		ID:           "walls/north",
		Metadata:     core.Metadata{"level": "L1"},
		LastModified: now,
	})
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A second cache instance over the same directory should see it.
	c2 := newCache(dir, ".jamb")
	if err := c2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, hit := c2.Get("walls/north.yaml", now)
	if !hit {
		t.Fatal("expected hit after reload")
	}
	if got.Metadata["level"] != "L1" {
		t.Errorf("metadata lost across reload: %v", got.Metadata)
	}
}

func TestCacheSaveSkipsWhenClean(t *testing.T) {
	dir := t.TempDir()
	c := newCache(dir, ".jamb")

	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(c.Path); !os.IsNotExist(err) {
		t.Error("clean cache should not be written to disk")
	}
}

func TestCacheCorruptionSelfHeals(t *testing.T) {
	dir := t.TempDir()
	c := newCache(dir, ".jamb")

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Load(); err != nil {
		t.Fatalf("Load should self-heal, got: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after corruption, got %d entries", c.Len())
	}
}

func TestCachePrune(t *testing.T) {
	c := newCache(t.TempDir(), ".jamb")
	now := time.Now()

	c.Set("walls/keep.yaml", &indexEntry{ID: "walls/keep", LastModified: now})
	c.Set("walls/drop.yaml", &indexEntry{ID: "walls/drop", LastModified: now})

	c.Prune(map[string]bool{"walls/keep.yaml": true})

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", c.Len())
	}
	if _, hit := c.Get("walls/drop.yaml", now); hit {
		t.Error("pruned entry still present")
	}
}
