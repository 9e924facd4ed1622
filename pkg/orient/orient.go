// Package orient resolves the local frame of an opening relative to its
// host wall: tangent, facing/hand axes, edge points and the parameter
// span the opening occupies on the host centerline.
package orient

import (
	"errors"

	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
)

// Frame is the resolved local coordinate frame of an opening.
// Facing and Hand are normalized when possible; a degenerate input axis
// is carried through un-normalized so downstream code can detect it.
type Frame struct {
	Origin  geom.Vec3 // placement point, the hand-axis origin of the opening
	Tangent geom.Vec3 // host tangent at the origin's projected parameter
	Facing  geom.Vec3
	Hand    geom.Vec3
	Width   float64

	// EdgeNear is the opening edge at the origin; EdgeFar the edge at
	// Origin + Hand*Width.
	EdgeNear geom.Vec3
	EdgeFar  geom.Vec3

	// Span is the host-centerline parameter interval between the two
	// edge projections.
	Span geom.Interval
}

// LocalU returns p's coordinate along the hand axis, measured from Origin.
func (f Frame) LocalU(p geom.Vec3) float64 {
	return p.Sub(f.Origin).Dot(f.Hand)
}

// LocalV returns p's coordinate along the facing axis, measured from Origin.
func (f Frame) LocalV(p geom.Vec3) float64 {
	return p.Sub(f.Origin).Dot(f.Facing)
}

// Edge returns the opening edge nearest to u on the hand axis.
func (f Frame) Edge(u float64) geom.Vec3 {
	if u > f.Width/2 {
		return f.EdgeFar
	}
	return f.EdgeNear
}

// Resolve computes the frame of op against its host wall.
// The tangent is taken from the host curve's derivative at the
// projected parameter rather than assuming a straight segment, so the
// same call works if a curved host is ever slotted in.
func Resolve(op core.Opening, host core.Wall) (Frame, error) {
	center := host.Centerline()
	if center.Length() < geom.Epsilon {
		return Frame{}, errors.New("host wall has a degenerate centerline")
	}
	if op.Width <= 0 {
		return Frame{}, errors.New("opening has no width")
	}

	t := center.Project(op.Point)
	tangent := center.TangentAt(t)

	facing := op.Facing.Normalize()
	hand := op.Hand.Normalize()

	near := op.Point
	far := op.Point.Add(hand.Scale(op.Width))

	span := geom.NewInterval(center.Project(near), center.Project(far))

	return Frame{
		Origin:   near,
		Tangent:  tangent,
		Facing:   facing,
		Hand:     hand,
		Width:    op.Width,
		EdgeNear: near,
		EdgeFar:  far,
		Span:     span,
	}, nil
}
