// Package dimension turns wall relations into placed dimensions using a
// two-phase protocol: a dry-run measuring pass over throwaway drafts,
// then a commit pass that persists accepted results from their cached
// geometry without recomputing anything.
package dimension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/veikko/jamb/pkg/adjacent"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/geom"
	"github.com/veikko/jamb/pkg/orient"
)

// Params control dimension line placement. Like the finder thresholds,
// the defaults are tuned for architectural scale in feet.
type Params struct {
	// Offset displaces the dimension line from the opening along the
	// facing axis (or against it, for back-side dimensions).
	Offset float64
	// HalfLength bounds the dimension line to this distance either side
	// of its midpoint, along the host wall direction.
	HalfLength float64
}

// DefaultParams returns the stock placement values.
func DefaultParams() Params {
	return Params{Offset: 3.0, HalfLength: 5.0}
}

// RefKind says what a reference anchors to.
type RefKind int

const (
	RefOpeningEdge RefKind = iota
	RefWallFace
)

// Reference is one anchor of a dimension: an element plus the resolved
// point on it.
type Reference struct {
	Element string
	Point   geom.Vec3
	Kind    RefKind
}

// Request is a planned dimension: a reference pair and the line to
// measure them along. Requests are transient; only committed results
// become elements.
type Request struct {
	Opening   string
	Wall      string
	Side      adjacent.Side
	From      Reference
	To        Reference
	Line      geom.Line
	Midpoint  geom.Vec3
	OffsetDir geom.Vec3
}

// Result is a measured request.
type Result struct {
	Request
	Value float64
}

// Measurer evaluates the separation between a request's references
// along its dimension line. Implementations may create transient
// artifacts to do so; the contract is that nothing outlives the call.
type Measurer interface {
	Measure(req Request) (float64, error)
}

// draftMeasurer is the default: it builds a throwaway draft dimension,
// reads the projected separation off it, and discards the draft. The
// projection runs along the dimension line direction, which is how the
// reference-specific alignment is honored.
type draftMeasurer struct{}

func (draftMeasurer) Measure(req Request) (float64, error) {
	dir := req.Line.Direction()
	if dir.IsZero() {
		return 0, errors.New("dimension line is degenerate")
	}

	draft := core.Dimension{
		Opening:  req.Opening,
		Wall:     req.Wall,
		Side:     req.Side.String(),
		Midpoint: req.Midpoint,
		Value:    req.To.Point.Sub(req.From.Point).Dot(dir),
	}
	if draft.Value < 0 {
		draft.Value = -draft.Value
	}
	// The draft is never saved; its only purpose is carrying the value
	// out of the measuring pass.
	return draft.Value, nil
}

// Engine plans, measures and commits dimensions.
type Engine struct {
	params   Params
	measurer Measurer
	logger   *slog.Logger
}

// NewEngine creates an Engine with the default draft measurer.
// A nil logger disables diagnostics.
func NewEngine(params Params, logger *slog.Logger) *Engine {
	return &Engine{params: params, measurer: draftMeasurer{}, logger: logger}
}

// UseMeasurer swaps the measuring backend. Exposed for tests and for
// hosts that resolve distances through their own dimension machinery.
func (e *Engine) UseMeasurer(m Measurer) {
	if m != nil {
		e.measurer = m
	}
}

// Plan builds one request per relation and side flag. The dimension
// line runs parallel to the host wall, displaced Offset along the
// facing axis for front-side dimensions and against it for back-side
// ones, bounded to HalfLength either side of the midpoint.
func (e *Engine) Plan(openingID string, frame orient.Frame, host core.Wall, rels []adjacent.Relation) []Request {
	hostDir := host.Direction()

	var reqs []Request
	for _, rel := range rels {
		for _, side := range rel.Sides {
			offsetDir := frame.Facing
			if side == adjacent.SideBack {
				offsetDir = frame.Facing.Neg()
			}

			base := rel.EdgePoint.Add(rel.FacePoint).Scale(0.5)
			mid := base.Add(offsetDir.Scale(e.params.Offset))
			line := geom.Line{
				Start: mid.Sub(hostDir.Scale(e.params.HalfLength)),
				End:   mid.Add(hostDir.Scale(e.params.HalfLength)),
			}

			reqs = append(reqs, Request{
				Opening:   openingID,
				Wall:      rel.Wall.ID,
				Side:      side,
				From:      Reference{Element: openingID, Point: rel.EdgePoint, Kind: RefOpeningEdge},
				To:        Reference{Element: rel.Wall.ID, Point: rel.FacePoint, Kind: RefWallFace},
				Line:      line,
				Midpoint:  mid,
				OffsetDir: offsetDir,
			})
		}
	}
	return reqs
}

// Measure runs phase one over the requests. Failures and zero values
// drop that one request and move on; skipped reports how many were
// dropped.
func (e *Engine) Measure(reqs []Request) (results []Result, skipped int) {
	for _, req := range reqs {
		value, err := e.measurer.Measure(req)
		if err != nil {
			skipped++
			if e.logger != nil {
				e.logger.Debug("measure failed, skipping", "opening", req.Opening, "wall", req.Wall, "error", err)
			}
			continue
		}
		if value < geom.Epsilon {
			skipped++
			if e.logger != nil {
				e.logger.Debug("zero separation, skipping", "opening", req.Opening, "wall", req.Wall)
			}
			continue
		}
		results = append(results, Result{Request: req, Value: value})
	}
	return results, skipped
}

// Commit runs phase two: it persists the results as dimension elements
// through the open transaction, using only the geometry cached on each
// result. A failure on one result skips that dimension and continues;
// it never aborts the batch.
func (e *Engine) Commit(ctx context.Context, tx core.Transaction, results []Result) (created, skipped int) {
	for _, res := range results {
		dim := core.Dimension{
			ID:       fmt.Sprintf("%s/%s", core.CategoryDimension, uuid.NewString()),
			Opening:  res.Opening,
			Wall:     res.Wall,
			Side:     res.Side.String(),
			Midpoint: res.Midpoint,
			Offset:   res.OffsetDir.Scale(e.params.Offset),
			Value:    res.Value,
		}

		el, err := core.ToElement(dim.ID, dim)
		if err == nil {
			err = tx.Save(ctx, el)
		}
		if err != nil {
			skipped++
			if e.logger != nil {
				e.logger.Warn("dimension creation failed, skipping", "opening", res.Opening, "wall", res.Wall, "error", err)
			}
			continue
		}
		created++
	}
	return created, skipped
}
