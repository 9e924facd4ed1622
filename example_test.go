package jamb_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/veikko/jamb"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
)

// Example_basic shows opening a plan, saving an element, and reading
// it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "jamb-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	// Versionless keeps the example independent of a git install.
	plan, err := jamb.New(tmpDir, jamb.WithAutoInit(true), jamb.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	err = plan.SaveElement(ctx, core.Element{
		ID: "walls/north",
		Metadata: core.Metadata{
			"level":     "L1",
			"thickness": 0.5,
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	el, err := plan.GetElement(ctx, "walls/north")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found element: %s\n", el.ID)
	// Output:
	// Found element: walls/north
}

// ExampleNewTypedRepository shows the generic typed wrapper.
func ExampleNewTypedRepository() {
	tmpDir, err := os.MkdirTemp("", "jamb-typed-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	repo, err := jamb.Init(filepath.Join(tmpDir, "plan"),
		jamb.WithAutoInit(true), jamb.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}

	walls := jamb.NewTypedRepository[core.Wall](repo)
	ctx := context.Background()

	err = walls.Save(ctx, &jamb.Model[core.Wall]{
		ID: "walls/north",
		Data: core.Wall{
			Level:     "L1",
			Start:     geom.Vec3{X: 0, Y: 0},
			End:       geom.Vec3{X: 20, Y: 0},
			Thickness: 0.5,
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	wall, err := walls.Get(ctx, "walls/north")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Wall %s runs %.0f ft\n", wall.ID, wall.Data.Centerline().Length())
	// Output:
	// Wall walls/north runs 20 ft
}
