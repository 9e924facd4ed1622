package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb/pkg/adapters/history"
	"github.com/veikko/jamb/pkg/revision"
)

var (
	historyJSON      bool
	historyLimit     int
	historyRevisions bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent command runs",
	Long: `History lists the plan's recent command runs, newest first: status,
element counts, and timing. With --revisions it lists the plan's
revision log instead, straight from the underlying repository.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _, path := openService()

		if historyRevisions {
			printRevisions(path)
			return
		}

		store, err := history.Open(filepath.Join(path, ".jamb", "runs.db"))
		if err != nil {
			fatal("Failed to open run history", err)
		}
		defer store.Close()

		runs, err := store.Recent(context.Background(), historyLimit)
		if err != nil {
			fatal("Failed to read run history", err)
		}

		if historyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(runs); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return
		}

		for _, r := range runs {
			line := fmt.Sprintf("%s  %-9s %-9s %d elements, %d created, %d skipped  (%s)",
				r.StartedAt.Format(time.DateTime), r.Command, r.Status,
				r.Elements, r.Created, r.Skipped, r.Duration.Round(time.Millisecond))
			if r.Message != "" {
				line += "  " + r.Message
			}
			fmt.Println(line)
		}
	},
}

func printRevisions(path string) {
	client := revision.NewClient(path, ".jamb.lock", nil)
	if !revision.IsInstalled() || !client.IsRepo() {
		fatal("Plan has no revision history", fmt.Errorf("no repository at %s", path))
	}

	entries, err := client.Log(historyLimit)
	if err != nil {
		fatal("Failed to read revision log", err)
	}

	for _, e := range entries {
		fmt.Printf("%s  %.8s  %s\n", e.When.Format(time.DateTime), e.Hash, e.Subject)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	historyCmd.Flags().BoolVar(&historyRevisions, "revisions", false, "Show the revision log instead of run history")
}
