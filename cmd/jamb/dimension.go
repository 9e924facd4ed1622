package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb/pkg/adapters/history"
	"github.com/veikko/jamb/pkg/adjacent"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/dimension"
)

var (
	dimensionCommit  bool
	dimensionPattern string
	dimensionLevel   string
)

var dimensionCmd = &cobra.Command{
	Use:   "dimension [opening]...",
	Short: "Place dimensions from openings to their adjacent walls",
	Long: `Dimension runs the full pipeline for the selected openings: resolve
each opening's orientation frame, find the adjacent perpendicular
walls, plan edge-to-face dimensions, and measure them.

Without --commit the run is a dry run: results are printed but not
written. With --commit all dimensions of the run are persisted in one
transaction and one revision; a failed run writes nothing.

Openings are given as IDs, or selected with --pattern. An empty
selection cancels the run (exit 2).`,
	Run: func(cmd *cobra.Command, args []string) {
		svc, cfg, path := openService()
		ctx := context.Background()

		ids := args
		if len(ids) == 0 {
			sel := core.Selection{
				Pattern:  dimensionPattern,
				Category: core.CategoryOpening,
				Level:    dimensionLevel,
			}
			els, err := svc.Select(ctx, sel)
			if err != nil && !errors.Is(err, core.ErrNoSelection) {
				fatal("Selection failed", err)
			}
			for _, el := range els {
				ids = append(ids, el.ID)
			}
		}

		runner := dimension.NewRunner(
			svc,
			adjacent.NewFinder(cfg.AdjacentParams(), slog.Default()),
			dimension.NewEngine(cfg.DimensionParams(), slog.Default()),
			slog.Default(),
		)

		report, analyses := runner.Run(ctx, ids, dimensionCommit)
		recordRun(ctx, path, report)

		for _, a := range analyses {
			fmt.Printf("%s:\n", a.Opening.ID)
			for _, res := range a.Results {
				fmt.Printf("  %s -> %s [%s]  %s\n",
					res.From.Element, res.To.Element, res.Side, cfg.FormatLength(res.Value))
			}
		}

		if report.Status == core.StatusSucceeded {
			verb := "measured"
			if dimensionCommit {
				verb = "created"
			}
			count := report.Created
			if !dimensionCommit {
				for _, a := range analyses {
					count += len(a.Results)
				}
			}
			fmt.Printf("%d dimensions %s across %d openings (%d skipped) in %s\n",
				count, verb, report.Elements, report.Skipped, report.Duration.Round(time.Millisecond))
		}

		exitReport(report)
	},
}

// recordRun appends the report to the plan's run history. History is
// best-effort: a broken database must not fail the run it records.
func recordRun(ctx context.Context, planPath string, report core.RunReport) {
	store, err := history.Open(filepath.Join(planPath, ".jamb", "runs.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "run history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Append(ctx, report); err != nil {
		fmt.Fprintf(os.Stderr, "run history write failed: %v\n", err)
	}
}

func init() {
	rootCmd.AddCommand(dimensionCmd)
	dimensionCmd.Flags().BoolVar(&dimensionCommit, "commit", false, "Persist the measured dimensions")
	dimensionCmd.Flags().StringVar(&dimensionPattern, "pattern", "", "Select openings by glob pattern (default: all openings)")
	dimensionCmd.Flags().StringVar(&dimensionLevel, "level", "", "Select openings by level")
}
