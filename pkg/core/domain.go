// Package core holds the domain model of a plan: the stored element
// kinds (walls, openings, placed dimensions), the repository and
// transaction ports, and the service orchestrating them.
package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/veikko/jamb/pkg/geom"
)

// Metadata represents the raw key-value payload of a stored element file.
type Metadata map[string]any

// Category groups elements inside a plan. It doubles as the directory
// name the filesystem adapter stores the element under.
type Category string

const (
	CategoryWall      Category = "walls"
	CategoryOpening   Category = "openings"
	CategoryDimension Category = "dimensions"
)

// Element is the central entity of the domain: one stored record in a
// plan, identified by "category/slug" (e.g. "walls/w-101").
type Element struct {
	ID       string
	Metadata Metadata
}

// Category derives the element's category from its ID prefix.
// Elements stored outside a known category directory return "".
func (e Element) Category() Category {
	idx := strings.Index(e.ID, "/")
	if idx < 0 {
		return ""
	}
	switch c := Category(e.ID[:idx]); c {
	case CategoryWall, CategoryOpening, CategoryDimension:
		return c
	default:
		return ""
	}
}

// Wall is a straight planar wall segment. The centerline runs from
// Start to End; the two faces sit thickness/2 to either side.
type Wall struct {
	ID        string    `json:"id"`
	Level     string    `json:"level,omitempty"`
	Start     geom.Vec3 `json:"start"`
	End       geom.Vec3 `json:"end"`
	Thickness float64   `json:"thickness"`
	Exterior  bool      `json:"exterior,omitempty"`
}

// Centerline returns the wall's bounded centerline.
func (w Wall) Centerline() geom.Line {
	return geom.Line{Start: w.Start, End: w.End}
}

// Direction returns the wall's unit direction. Degenerate walls
// (coincident endpoints) return the raw zero delta; callers comparing
// dot products must tolerate that.
func (w Wall) Direction() geom.Vec3 {
	return w.End.Sub(w.Start).Normalize()
}

// Normal returns the unit normal of the wall in plan (the centerline
// direction rotated a quarter turn about Z).
func (w Wall) Normal() geom.Vec3 {
	d := w.Direction()
	return geom.Vec3{X: -d.Y, Y: d.X, Z: 0}
}

// Faces returns the two face lines of the wall, offset thickness/2 to
// either side of the centerline. ok is false when the wall cannot
// produce usable faces (zero thickness or a degenerate centerline);
// the finder silently skips such walls rather than erroring.
func (w Wall) Faces() (a, b geom.Line, ok bool) {
	if w.Thickness <= 0 {
		return geom.Line{}, geom.Line{}, false
	}
	n := w.Normal()
	if n.IsZero() {
		return geom.Line{}, geom.Line{}, false
	}
	c := w.Centerline()
	half := w.Thickness / 2
	return c.Offset(n, half), c.Offset(n, -half), true
}

// Opening is a door or window instance hosted in a wall. Facing and
// Hand are the instance's local forward/right unit axes; Point is the
// placement point at the hand-axis origin of the opening.
type Opening struct {
	ID     string    `json:"id"`
	Host   string    `json:"host"`
	Kind   string    `json:"kind,omitempty"`
	Point  geom.Vec3 `json:"point"`
	Facing geom.Vec3 `json:"facing"`
	Hand   geom.Vec3 `json:"hand"`
	Width  float64   `json:"width"`
}

// Dimension is a placed dimension: the persisted output of the
// dimensioning engine. It carries the cached geometry the dimension was
// committed from so it can be re-rendered without recomputation.
type Dimension struct {
	ID       string    `json:"id"`
	Opening  string    `json:"opening"`
	Wall     string    `json:"wall"`
	Side     string    `json:"side"`
	Midpoint geom.Vec3 `json:"midpoint"`
	Offset   geom.Vec3 `json:"offset"`
	Value    float64   `json:"value"`
}

// FromElement decodes an element's metadata into a typed domain value.
// The round-trip goes through JSON, matching how the typed repository
// layer converts documents.
func FromElement[T any](el Element) (T, error) {
	var out T
	data, err := json.Marshal(el.Metadata)
	if err != nil {
		return out, fmt.Errorf("metadata marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", el.ID, err)
	}
	return out, nil
}

// ToElement encodes a typed domain value into a storable element.
func ToElement[T any](id string, v T) (Element, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Element{}, fmt.Errorf("value marshal failed: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Element{}, fmt.Errorf("value to metadata failed: %w", err)
	}
	return Element{ID: id, Metadata: meta}, nil
}

// EventType represents the type of change in the plan.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the plan.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
