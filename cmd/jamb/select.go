package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb/pkg/core"
)

var (
	selectLevel    string
	selectCategory string
)

var selectCmd = &cobra.Command{
	Use:   "select <pattern>",
	Short: "Resolve a selection pattern against the plan",
	Long: `Select resolves a glob pattern against the plan (openings by default)
and prints the matching IDs, one per line. An empty selection is a
cancelled run (exit 2), not an error: dimensioning nothing is a user
decision, not a fault.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _, _ := openService()

		sel := core.Selection{
			Pattern:  args[0],
			Category: core.Category(selectCategory),
			Level:    selectLevel,
		}

		els, err := svc.Select(context.Background(), sel)
		if err != nil {
			if errors.Is(err, core.ErrNoSelection) {
				exitReport(core.RunReport{
					Command:   "select",
					Status:    core.StatusCancelled,
					Message:   err.Error(),
					StartedAt: time.Now(),
				})
			}
			fatal("Selection failed", err)
		}

		for _, el := range els {
			fmt.Println(el.ID)
		}
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().StringVar(&selectLevel, "level", "", "Filter by level (case-insensitive)")
	selectCmd.Flags().StringVar(&selectCategory, "category", "openings", "Filter by category (walls, openings, dimensions)")
}
