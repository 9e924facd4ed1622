package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb/pkg/adjacent"
	"github.com/veikko/jamb/pkg/core"
	"github.com/veikko/jamb/pkg/dimension"
)

var (
	adjacentJSON    bool
	adjacentPattern string
)

var adjacentCmd = &cobra.Command{
	Use:   "adjacent [opening]...",
	Short: "Classify the walls adjacent to an opening",
	Long: `Adjacent resolves each opening's orientation frame and classifies the
perpendicular walls around it: left, right, or in front, and on which
side of the host wall. This is the read-only half of the dimensioning
pipeline; nothing is written to the plan, but the run is recorded in
the run history like any other.

Openings are given as IDs, or selected with --pattern (default: all
openings). An empty selection cancels the run (exit 2).`,
	Run: func(cmd *cobra.Command, args []string) {
		svc, cfg, path := openService()
		ctx := context.Background()

		ids := args
		if len(ids) == 0 {
			els, err := svc.Select(ctx, core.Selection{
				Pattern:  adjacentPattern,
				Category: core.CategoryOpening,
			})
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

		report, analyses := runner.AnalyzeRun(ctx, "adjacent", ids)
		recordRun(ctx, path, report)

		if adjacentJSON {
			type entry struct {
				Opening   string              `json:"opening"`
				Relations []adjacent.Relation `json:"relations"`
			}
			out := make([]entry, 0, len(analyses))
			for _, a := range analyses {
				out = append(out, entry{Opening: a.Opening.ID, Relations: a.Relations})
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
		} else {
			for _, a := range analyses {
				fmt.Printf("%s:\n", a.Opening.ID)
				if len(a.Relations) == 0 {
					fmt.Println("  no adjacent walls")
					continue
				}
				for _, rel := range a.Relations {
					sides := ""
					for i, s := range rel.Sides {
						if i > 0 {
							sides += "+"
						}
						sides += s.String()
					}
					fmt.Printf("  %-6s %s  %s away  (%s", rel.Position, rel.Wall.ID, cfg.FormatLength(rel.Distance), sides)
					if rel.RequiresBothSides {
						fmt.Printf(", both sides")
					}
					fmt.Println(")")
				}
			}
		}

		exitReport(report)
	},
}

func init() {
	rootCmd.AddCommand(adjacentCmd)
	adjacentCmd.Flags().BoolVar(&adjacentJSON, "json", false, "Output in JSON format")
	adjacentCmd.Flags().StringVar(&adjacentPattern, "pattern", "", "Select openings by glob pattern (default: all openings)")
}
