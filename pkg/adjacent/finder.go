// Package adjacent scans candidate walls around an opening and
// classifies each one relative to the opening's local frame: which side
// of the opening it sits on, whether it needs dimensions on one or both
// sides of the facing axis, and how far it is from the nearest face.
package adjacent

import (
	"log/slog"
	"math"
	"sort"

	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
	"github.com/veikko/jamb/pkg/orient"
)

// Params are the geometric thresholds of the finder. The defaults are
// empirically tuned for typical architectural scale in feet; they are
// named here instead of buried as literals, but no claim is made that
// they generalize to other scales.
type Params struct {
	// EdgeTolerance widens every interval test on the local axes.
	EdgeTolerance float64
	// PerpendicularMax is the largest |dot| of unit directions still
	// counted as "roughly perpendicular".
	PerpendicularMax float64
	// SearchDistance bounds the scan: it is the bounding-box margin
	// around the opening and the maximum face distance beyond the
	// opening width.
	SearchDistance float64
	// FrontClearance is the facing-axis clearance below which a wall
	// inside the opening's width span counts as directly abutting the
	// opening and is excluded.
	FrontClearance float64
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		EdgeTolerance:    0.1,
		PerpendicularMax: 0.3,
		SearchDistance:   4.0,
		FrontClearance:   0.1,
	}
}

// Position classifies where a wall sits relative to the opening span on
// the hand axis.
type Position int

const (
	PositionLeft Position = iota
	PositionRight
	PositionFront
)

// String returns the lowercase position name.
func (p Position) String() string {
	switch p {
	case PositionLeft:
		return "left"
	case PositionRight:
		return "right"
	case PositionFront:
		return "front"
	default:
		return "unknown"
	}
}

// Side is one of the two half-spaces along the opening's facing axis.
type Side int

const (
	SideFront Side = iota
	SideBack
)

// String returns the lowercase side name.
func (s Side) String() string {
	if s == SideBack {
		return "back"
	}
	return "front"
}

// Relation is the transient classification of one candidate wall
// against one opening. Relations are recomputed on every run and never
// persisted.
type Relation struct {
	Wall     core.Wall
	Position Position
	Sides    []Side
	// RequiresBothSides is set when the wall's endpoints straddle the
	// opening's facing axis, so a dimension is needed on each side.
	RequiresBothSides bool
	// Distance runs from EdgePoint to FacePoint.
	Distance  float64
	EdgePoint geom.Vec3
	FacePoint geom.Vec3
	Face      geom.Line
}

// IsPerpendicular reports whether two directions are roughly
// perpendicular under max. It normalizes both inputs, so the test is
// symmetric in its arguments.
func IsPerpendicular(a, b geom.Vec3, max float64) bool {
	return math.Abs(a.Normalize().Dot(b.Normalize())) <= max
}

// Finder classifies candidate walls around openings.
type Finder struct {
	params Params
	logger *slog.Logger
}

// NewFinder creates a Finder. A nil logger disables diagnostics.
func NewFinder(params Params, logger *slog.Logger) *Finder {
	return &Finder{params: params, logger: logger}
}

// Params returns the finder's thresholds.
func (f *Finder) Params() Params {
	return f.params
}

// endpointFlags classify one wall endpoint against the opening's
// facing axis. The hand-axis position comes from the closest-point
// projection in classify, not from the endpoints.
type endpointFlags struct {
	inFront bool
	inBack  bool
}

func (f *Finder) classifyEndpoint(frame orient.Frame, p geom.Vec3) endpointFlags {
	tol := f.params.EdgeTolerance
	v := frame.LocalV(p)

	return endpointFlags{
		inFront: v > tol,
		inBack:  v < -tol,
	}
}

// Find returns the relations for every candidate wall that survives the
// pipeline: bounding-box prefilter, perpendicularity, the directly-in-
// front exclusion, side classification and the face distance cut.
// Candidates without usable faces are dropped silently; most walls in a
// scan radius are structurally irrelevant and reporting each one as an
// error would bury the real results. Find does not mutate its inputs
// and is deterministic for a given input list.
func (f *Finder) Find(frame orient.Frame, host core.Wall, candidates []core.Wall) []Relation {
	byPosition := make(map[Position]Relation, 3)

	for _, wall := range candidates {
		if wall.ID == host.ID {
			continue
		}
		if !f.inSearchBox(frame, wall) {
			continue
		}
		if !IsPerpendicular(host.Direction(), wall.Direction(), f.params.PerpendicularMax) {
			continue
		}

		rel, ok := f.classify(frame, wall)
		if !ok {
			continue
		}

		// Deduplicate by spatial side: two walls on the same side of
		// the opening would produce stacked dimensions, keep the nearer.
		if prev, exists := byPosition[rel.Position]; !exists || rel.Distance < prev.Distance {
			byPosition[rel.Position] = rel
		}
	}

	out := make([]Relation, 0, len(byPosition))
	for _, rel := range byPosition {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Wall.ID < out[j].Wall.ID
	})
	return out
}

// inSearchBox is the cheap prefilter: the wall's plan bounding box must
// overlap the opening's box expanded by the search distance.
func (f *Finder) inSearchBox(frame orient.Frame, wall core.Wall) bool {
	margin := f.params.SearchDistance

	minX := math.Min(frame.EdgeNear.X, frame.EdgeFar.X) - margin
	maxX := math.Max(frame.EdgeNear.X, frame.EdgeFar.X) + margin
	minY := math.Min(frame.EdgeNear.Y, frame.EdgeFar.Y) - margin
	maxY := math.Max(frame.EdgeNear.Y, frame.EdgeFar.Y) + margin

	wMinX := math.Min(wall.Start.X, wall.End.X)
	wMaxX := math.Max(wall.Start.X, wall.End.X)
	wMinY := math.Min(wall.Start.Y, wall.End.Y)
	wMaxY := math.Max(wall.Start.Y, wall.End.Y)

	return wMinX <= maxX && wMaxX >= minX && wMinY <= maxY && wMaxY >= minY
}

func (f *Finder) classify(frame orient.Frame, wall core.Wall) (Relation, bool) {
	startFlags := f.classifyEndpoint(frame, wall.Start)
	endFlags := f.classifyEndpoint(frame, wall.End)

	// Sides along the facing axis.
	anyFront := startFlags.inFront || endFlags.inFront
	anyBack := startFlags.inBack || endFlags.inBack

	var sides []Side
	both := anyFront && anyBack
	switch {
	case both:
		sides = []Side{SideFront, SideBack}
	case anyFront:
		sides = []Side{SideFront}
	case anyBack:
		sides = []Side{SideBack}
	default:
		// No valid side: the wall hugs the facing-axis origin.
		return Relation{}, false
	}

	// Position on the hand axis, from the closest point to the opening
	// midpoint.
	mid := frame.Origin.Add(frame.Hand.Scale(frame.Width / 2))
	closest := wall.Centerline().ClosestPoint(mid)
	u := frame.LocalU(closest)

	var position Position
	var edge geom.Vec3
	switch {
	case u < -f.params.EdgeTolerance:
		position = PositionLeft
		edge = frame.EdgeNear
	case u > frame.Width+f.params.EdgeTolerance:
		position = PositionRight
		edge = frame.EdgeFar
	default:
		position = PositionFront
		edge = frame.Edge(u)

		// A wall inside the width span that sits within the clearance
		// of the opening lies directly in front of/behind it; there is
		// no room for a dimension.
		if math.Abs(frame.LocalV(closest)) <= f.params.FrontClearance {
			f.debug("wall abuts the opening, excluded", wall.ID)
			return Relation{}, false
		}
	}

	faceA, faceB, ok := wall.Faces()
	if !ok {
		f.debug("wall has no usable faces, excluded", wall.ID)
		return Relation{}, false
	}

	// Dimension to whichever face is closer to the opening edge.
	face := faceA
	facePoint := faceA.ClosestPoint(edge)
	if alt := faceB.ClosestPoint(edge); edge.DistanceTo(alt) < edge.DistanceTo(facePoint) {
		face = faceB
		facePoint = alt
	}

	dist := edge.DistanceTo(facePoint)
	if dist > frame.Width+f.params.SearchDistance {
		return Relation{}, false
	}

	return Relation{
		Wall:              wall,
		Position:          position,
		Sides:             sides,
		RequiresBothSides: both,
		Distance:          dist,
		EdgePoint:         edge,
		FacePoint:         facePoint,
		Face:              face,
	}, true
}

func (f *Finder) debug(msg, wallID string) {
	if f.logger != nil {
		f.logger.Debug(msg, "wall", wallID)
	}
}
