package typed_test

import (
	"context"
	"testing"

	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
	"github.com/veikko/jamb/pkg/typed"
)

func TestTypedService(t *testing.T) {
	ctx := context.Background()
	svc := typed.NewService[core.Opening](core.NewService(newMemRepo()))

	opening := core.Opening{
		ID:     "openings/d1",
		Host:   "walls/north",
		Kind:   "door",
		Point:  geom.Vec3{X: 5, Y: 0},
		Facing: geom.Vec3{Y: 1},
		Hand:   geom.Vec3{X: 1},
		Width:  3,
	}

	t.Run("Save Validates Through Service", func(t *testing.T) {
		m := &typed.Model[core.Opening]{ID: "openings/d1", Data: opening}
		if err := svc.Save(ctx, m); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := svc.Get(ctx, "openings/d1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Data.Kind != "door" || got.Data.Width != 3 {
			t.Errorf("payload lost: %+v", got.Data)
		}
	})

	t.Run("Save Rejects Empty ID", func(t *testing.T) {
		m := &typed.Model[core.Opening]{Data: opening}
		if err := svc.Save(ctx, m); err == nil {
			t.Error("expected Save without ID to fail")
		}
	})

	t.Run("List", func(t *testing.T) {
		models, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(models) != 1 {
			t.Errorf("expected 1 model, got %d", len(models))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := svc.Delete(ctx, "openings/d1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, "openings/d1"); err == nil {
			t.Error("expected Get after Delete to fail")
		}
	})
}
