package dimension

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/veikko/jamb/pkg/adjacent"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/orient"
)

// Analysis bundles the per-opening output of a run: the resolved frame,
// the classified wall relations, and the measured results.
type Analysis struct {
	Opening   core.Opening
	Frame     orient.Frame
	Relations []adjacent.Relation
	Results   []Result
}

// Runner drives the full pipeline for a set of openings: resolve the
// frame, find adjacent walls, measure, and optionally commit, all
// inside one transaction so a failed run leaves no partial dimensions.
type Runner struct {
	svc    *core.Service
	finder *adjacent.Finder
	engine *Engine
	logger *slog.Logger
}

// NewRunner wires a Runner.
func NewRunner(svc *core.Service, finder *adjacent.Finder, engine *Engine, logger *slog.Logger) *Runner {
	return &Runner{svc: svc, finder: finder, engine: engine, logger: logger}
}

// Analyze runs the read-only part of the pipeline for each opening ID.
// Per-opening geometry degeneracies are skipped and counted; validation
// failures (missing element, wrong kind) abort with the error so the
// caller can report a cancelled run.
func (r *Runner) Analyze(ctx context.Context, openingIDs []string) (analyses []Analysis, skipped int, err error) {
	walls, err := r.svc.Walls(ctx)
	if err != nil {
		return nil, 0, err
	}

	for _, id := range openingIDs {
		op, host, err := r.svc.Opening(ctx, id)
		if err != nil {
			return nil, 0, err
		}

		frame, err := orient.Resolve(op, host)
		if err != nil {
			skipped++
			if r.logger != nil {
				r.logger.Warn("opening skipped", "opening", id, "error", err)
			}
			continue
		}

		rels := r.finder.Find(frame, host, walls)
		reqs := r.engine.Plan(id, frame, host, rels)
		results, dropped := r.engine.Measure(reqs)
		skipped += dropped

		analyses = append(analyses, Analysis{
			Opening:   op,
			Frame:     frame,
			Relations: rels,
			Results:   results,
		})
	}
	return analyses, skipped, nil
}

// AnalyzeRun wraps Analyze with run reporting for read-only commands:
// the returned report carries the three-way status (cancelled for
// input validation failures, failed for unexpected errors, succeeded
// otherwise) and is what the run history records.
func (r *Runner) AnalyzeRun(ctx context.Context, command string, openingIDs []string) (core.RunReport, []Analysis) {
	report := core.RunReport{
		Command:   command,
		StartedAt: time.Now(),
	}

	if len(openingIDs) == 0 {
		report.Status = core.StatusCancelled
		report.Message = core.ErrNoSelection.Error()
		report.Duration = time.Since(report.StartedAt)
		return report, nil
	}

	analyses, skipped, err := r.Analyze(ctx, openingIDs)
	report.Skipped = skipped
	report.Elements = len(openingIDs)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrWrongKind) || errors.Is(err, core.ErrNoSelection) {
			report.Status = core.StatusCancelled
		} else {
			report.Status = core.StatusFailed
		}
		report.Message = err.Error()
		report.Duration = time.Since(report.StartedAt)
		return report, nil
	}

	report.Status = core.StatusSucceeded
	report.Duration = time.Since(report.StartedAt)
	return report, analyses
}

// Run executes the pipeline and, when commit is set, persists all
// measured dimensions in a single transaction. Status semantics are
// those of AnalyzeRun; a failed commit rolls the transaction back.
func (r *Runner) Run(ctx context.Context, openingIDs []string, commit bool) (core.RunReport, []Analysis) {
	report, analyses := r.AnalyzeRun(ctx, "dimension", openingIDs)
	if report.Status != core.StatusSucceeded || !commit {
		return report, analyses
	}

	txCtx := context.WithValue(ctx, core.ChangeReasonKey, "dimension openings")
	err := r.svc.WithTransaction(txCtx, func(tx core.Transaction) error {
		for _, a := range analyses {
			created, dropped := r.engine.Commit(txCtx, tx, a.Results)
			report.Created += created
			report.Skipped += dropped
		}
		return nil
	})
	if err != nil {
		report.Status = core.StatusFailed
		report.Message = err.Error()
		report.Created = 0 // rolled back
		report.Duration = time.Since(report.StartedAt)
		return report, nil
	}

	report.Status = core.StatusSucceeded
	report.Duration = time.Since(report.StartedAt)
	return report, analyses
}
