package stress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veikko/jamb"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
)

// TestConcurrentSaves hammers the repository with parallel writers.
// Atomic writes mean every element must come out whole: either the
// full document or not there at all, never a torn file.
func TestConcurrentSaves(t *testing.T) {
	svc, err := jamb.New(t.TempDir(),
		jamb.WithAutoInit(true),
		jamb.WithVersioning(false),
		jamb.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	const writers = 8
	const perWriter = 25

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("walls/w%d-%d", w, i)
				el, err := core.ToElement(id, core.Wall{
					ID:        id,
					Start:     geom.Vec3{X: float64(i)},
					End:       geom.Vec3{X: float64(i) + 10},
					Thickness: 0.5,
				})
				if err == nil {
					err = svc.SaveElement(ctx, el)
				}
				if err != nil {
					errs <- fmt.Errorf("%s: %w", id, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("save failed: %v", err)
	}

	els, err := svc.ListElements(ctx)
	require.NoError(t, err)
	assert.Len(t, els, writers*perWriter)

	// Every element parses back with its geometry intact.
	for _, el := range els {
		wall, err := core.FromElement[core.Wall](el)
		require.NoError(t, err, "torn element %s", el.ID)
		assert.InDelta(t, 10, wall.End.X-wall.Start.X, 1e-9)
	}
}

// TestConcurrentTransactions runs overlapping transactions on a
// versionless plan; staged writes must not bleed between them.
func TestConcurrentTransactions(t *testing.T) {
	svc, err := jamb.New(t.TempDir(),
		jamb.WithAutoInit(true),
		jamb.WithVersioning(false),
		jamb.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			err := svc.WithTransaction(ctx, func(tx core.Transaction) error {
				for i := 0; i < 10; i++ {
					id := fmt.Sprintf("openings/tx%d-%d", w, i)
					el, err := core.ToElement(id, core.Opening{
						ID:     id,
						Host:   "walls/host",
						Facing: geom.Vec3{Y: 1},
						Hand:   geom.Vec3{X: 1},
						Width:  3,
					})
					if err != nil {
						return err
					}
					if err := tx.Save(ctx, el); err != nil {
						return err
					}
				}
				return nil
			})
			assert.NoError(t, err)
		}(w)
	}
	wg.Wait()

	els, err := svc.ListElements(ctx)
	require.NoError(t, err)
	assert.Len(t, els, 40)
}
