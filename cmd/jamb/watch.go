package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Stream plan changes until interrupted",
	Long: `Watch streams element change events for the plan, one per line, until
interrupted. An optional glob pattern narrows the stream (e.g.
'openings/**'). External edits made while a transaction holds the plan
lock are reconciled and emitted once the lock is released.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _, path := openService()

		pattern := "**"
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx, pattern)
		if err != nil {
			fatal("Failed to start watcher", err)
		}

		fmt.Fprintf(os.Stderr, "watching %s (pattern %s), Ctrl+C to stop\n", path, pattern)

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				fmt.Printf("%s  %-6s  %s\n", time.Unix(e.Timestamp, 0).Format(time.TimeOnly), e.Type, e.ID)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
