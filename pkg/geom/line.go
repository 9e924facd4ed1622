package geom

import "math"

// Interval is a closed parameter range on a line.
type Interval struct {
	Min float64
	Max float64
}

// NewInterval orders a and b into an Interval.
func NewInterval(a, b float64) Interval {
	if a > b {
		a, b = b, a
	}
	return Interval{Min: a, Max: b}
}

// Contains reports whether t lies inside the interval, widened by tol on both ends.
func (i Interval) Contains(t, tol float64) bool {
	return t >= i.Min-tol && t <= i.Max+tol
}

// Length returns the span of the interval.
func (i Interval) Length() float64 {
	return i.Max - i.Min
}

// Line is a bounded straight segment from Start to End.
// The analysis code treats wall centerlines and faces as Lines; the
// parameter t runs 0..1 over the bounded span but projections may fall
// outside it.
type Line struct {
	Start Vec3
	End   Vec3
}

// Direction returns the unit direction of the line.
// Degenerate (zero-length) lines return the raw un-normalized delta.
func (l Line) Direction() Vec3 {
	return l.End.Sub(l.Start).Normalize()
}

// Length returns the bounded length of the line.
func (l Line) Length() float64 {
	return l.End.Sub(l.Start).Length()
}

// PointAt evaluates the line at parameter t (0 = Start, 1 = End).
func (l Line) PointAt(t float64) Vec3 {
	return l.Start.Add(l.End.Sub(l.Start).Scale(t))
}

// TangentAt returns the derivative direction at parameter t.
// For a straight segment this is constant, but callers use it instead of
// assuming straightness so curved hosts can slot in behind the same call.
func (l Line) TangentAt(t float64) Vec3 {
	_ = t
	return l.Direction()
}

// Project returns the unclamped parameter of the closest point to p.
// A degenerate line projects everything to t=0.
func (l Line) Project(p Vec3) float64 {
	d := l.End.Sub(l.Start)
	den := d.Dot(d)
	if den < Epsilon*Epsilon {
		return 0
	}
	return p.Sub(l.Start).Dot(d) / den
}

// ClosestPoint returns the point on the bounded segment nearest to p.
func (l Line) ClosestPoint(p Vec3) Vec3 {
	t := l.Project(p)
	t = math.Max(0, math.Min(1, t))
	return l.PointAt(t)
}

// DistanceTo returns the distance from p to the bounded segment.
func (l Line) DistanceTo(p Vec3) float64 {
	return p.DistanceTo(l.ClosestPoint(p))
}

// Offset returns the line displaced by dist along normal.
// The normal is not validated here; degenerate inputs simply shift by
// whatever vector was given.
func (l Line) Offset(normal Vec3, dist float64) Line {
	shift := normal.Normalize().Scale(dist)
	return Line{Start: l.Start.Add(shift), End: l.End.Add(shift)}
}
