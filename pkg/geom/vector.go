// Package geom provides the small vector/line toolkit the analysis
// packages are built on. All values are plain float64 in model units;
// nothing here allocates beyond the value types themselves.
package geom

import "math"

// Epsilon is the length below which a vector is considered degenerate.
const Epsilon = 1e-9

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the distance between v and w treated as points.
func (v Vec3) DistanceTo(w Vec3) float64 {
	return v.Sub(w).Length()
}

// IsZero reports whether v is shorter than Epsilon.
func (v Vec3) IsZero() bool {
	return v.Length() < Epsilon
}

// Normalize returns v scaled to unit length.
// A near-zero vector is returned unchanged: the degenerate input is the
// caller's signal, and dividing by ~0 would only replace it with NaNs.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return v
	}
	return v.Scale(1 / l)
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}
