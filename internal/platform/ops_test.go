package platform

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/veikko/jamb/pkg/adapters/fs"
	"github.com/veikko/jamb/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("Creates Versionless Plan", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan")

		repo, err := Init(path, WithAutoInit(true), WithVersioning(false))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}

		if err := repo.Save(context.Background(), core.Element{
			ID:       "walls/w1",
			Metadata: core.Metadata{"level": "L1"},
		}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	})

	t.Run("Returns Injected Repository", func(t *testing.T) {
		custom := fs.NewRepository(fs.Config{Path: t.TempDir(), Versionless: true})

		repo, err := Init("ignored", WithRepository(custom))
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if repo != core.Repository(custom) {
			t.Error("expected the injected repository back")
		}
	})

	t.Run("Rejects Unknown Adapter", func(t *testing.T) {
		if _, err := Init(t.TempDir(), WithAdapter("s3")); err == nil {
			t.Error("expected error for unknown adapter")
		}
	})

	t.Run("Rejects Bad Serializer", func(t *testing.T) {
		_, err := Init(t.TempDir(),
			WithAutoInit(true),
			WithVersioning(false),
			WithSerializer(".csv", struct{}{}),
		)
		if err == nil {
			t.Error("expected error for non-Serializer value")
		}
	})
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan")

	svc, err := New(path, WithAutoInit(true), WithVersioning(false))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	el := core.Element{ID: "openings/d1", Metadata: core.Metadata{"kind": "door"}}
	if err := svc.SaveElement(ctx, el); err != nil {
		t.Fatalf("SaveElement failed: %v", err)
	}

	got, err := svc.GetElement(ctx, "openings/d1")
	if err != nil {
		t.Fatalf("GetElement failed: %v", err)
	}
	if got.Metadata["kind"] != "door" {
		t.Errorf("metadata lost: %v", got.Metadata)
	}
}

func TestResolvePlanPath(t *testing.T) {
	t.Run("Pass Through Without Temp", func(t *testing.T) {
		if got := ResolvePlanPath("./plan", false); got != "./plan" {
			t.Errorf("unexpected path: %q", got)
		}
		if got := ResolvePlanPath("", false); got != "." {
			t.Errorf("empty path should resolve to '.', got %q", got)
		}
	})

	t.Run("Trusts Paths Already in Temp", func(t *testing.T) {
		dir := t.TempDir()
		if got := ResolvePlanPath(dir, true); got != filepath.Clean(dir) {
			t.Errorf("temp path should pass through, got %q", got)
		}
	})

	t.Run("Reroots Real Paths Into Sandbox", func(t *testing.T) {
		got := ResolvePlanPath("/srv/drawings/site-a", true)
		if filepath.Base(got) != "site-a" {
			t.Errorf("expected base name kept, got %q", got)
		}
		if got == "/srv/drawings/site-a" {
			t.Error("real path must not pass through under forceTemp")
		}
	})
}
