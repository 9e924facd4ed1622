package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb/pkg/core"
)

var (
	listJSON     bool
	listPattern  string
	listCategory string
	listLevel    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List elements in the plan",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _, _ := openService()

		sel := core.Selection{
			Pattern:  listPattern,
			Category: core.Category(listCategory),
			Level:    listLevel,
		}

		els, err := svc.Select(context.Background(), sel)
		if err != nil {
			if errors.Is(err, core.ErrNoSelection) {
				return // empty plan, empty output, success
			}
			fatal("Failed to list elements", err)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(els); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, el := range els {
			if l, ok := el.Metadata["level"].(string); ok && l != "" {
				fmt.Printf("%s - %s\n", el.ID, l)
			} else {
				fmt.Println(el.ID)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listPattern, "pattern", "", "Glob pattern on element IDs (e.g. 'openings/**')")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category (walls, openings, dimensions)")
	listCmd.Flags().StringVar(&listLevel, "level", "", "Filter by level (case-insensitive)")
}
