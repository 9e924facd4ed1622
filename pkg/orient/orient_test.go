package orient_test

import (
	"math"
	"testing"

	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
	"github.com/veikko/jamb/pkg/orient"
)

func door(width float64) core.Opening {
	return core.Opening{
		ID:     "openings/d1",
		Host:   "walls/host",
		Point:  geom.Vec3{X: 5},
		Facing: geom.Vec3{Y: 1},
		Hand:   geom.Vec3{X: 1},
		Width:  width,
	}
}

func hostWall() core.Wall {
	return core.Wall{ID: "walls/host", End: geom.Vec3{X: 20}, Thickness: 0.5}
}

func TestResolve(t *testing.T) {
	frame, err := orient.Resolve(door(3), hostWall())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if frame.Tangent != (geom.Vec3{X: 1}) {
		t.Errorf("expected tangent along +X, got %v", frame.Tangent)
	}
	if frame.EdgeNear != (geom.Vec3{X: 5}) {
		t.Errorf("unexpected near edge: %v", frame.EdgeNear)
	}
	if frame.EdgeFar != (geom.Vec3{X: 8}) {
		t.Errorf("unexpected far edge: %v", frame.EdgeFar)
	}

	// 20 ft wall: edges at x=5 and x=8 project to t=0.25 and t=0.4.
	if math.Abs(frame.Span.Min-0.25) > 1e-9 || math.Abs(frame.Span.Max-0.4) > 1e-9 {
		t.Errorf("unexpected span: %+v", frame.Span)
	}
}

func TestResolveNormalizesAxes(t *testing.T) {
	op := door(3)
	op.Facing = geom.Vec3{Y: 7} // non-unit on purpose
	op.Hand = geom.Vec3{X: 0.2}

	frame, err := orient.Resolve(op, hostWall())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if math.Abs(frame.Facing.Length()-1) > 1e-9 {
		t.Errorf("facing not normalized: %v", frame.Facing)
	}
	if math.Abs(frame.Hand.Length()-1) > 1e-9 {
		t.Errorf("hand not normalized: %v", frame.Hand)
	}
}

func TestResolveDegenerateAxisSurvives(t *testing.T) {
	op := door(3)
	op.Hand = geom.Vec3{} // degenerate hand axis

	frame, err := orient.Resolve(op, hostWall())
	if err != nil {
		t.Fatalf("degenerate axes are tolerated, got error: %v", err)
	}
	if !frame.Hand.IsZero() {
		t.Errorf("zero hand axis must pass through unchanged, got %v", frame.Hand)
	}
	// Both edges collapse onto the origin.
	if frame.EdgeFar != frame.EdgeNear {
		t.Errorf("edges should coincide for zero hand, got %v / %v", frame.EdgeNear, frame.EdgeFar)
	}
}

func TestResolveRejectsDegenerateHost(t *testing.T) {
	host := hostWall()
	host.End = host.Start

	if _, err := orient.Resolve(door(3), host); err == nil {
		t.Error("expected error for degenerate host centerline")
	}
}

func TestResolveRejectsZeroWidth(t *testing.T) {
	if _, err := orient.Resolve(door(0), hostWall()); err == nil {
		t.Error("expected error for zero-width opening")
	}
}

func TestFrameLocalCoordinates(t *testing.T) {
	frame, err := orient.Resolve(door(3), hostWall())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	p := geom.Vec3{X: 7, Y: 2}
	if got := frame.LocalU(p); math.Abs(got-2) > 1e-9 {
		t.Errorf("LocalU = %v, want 2", got)
	}
	if got := frame.LocalV(p); math.Abs(got-2) > 1e-9 {
		t.Errorf("LocalV = %v, want 2", got)
	}

	if frame.Edge(-1) != frame.EdgeNear {
		t.Error("negative u should pick the near edge")
	}
	if frame.Edge(4) != frame.EdgeFar {
		t.Error("u past the width should pick the far edge")
	}
}
