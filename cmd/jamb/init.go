package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb"
	"github.com/veikko/jamb/internal/settings"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a plan directory",
	Long: `Initialize a new plan: create the category directories (walls,
openings, dimensions), write the default jamb.toml, and start the
revision history unless --versionless is set.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		opts := []jamb.Option{
			jamb.WithAutoInit(true),
			jamb.WithLogger(slog.Default()),
			jamb.WithDevSafety(false),
		}
		if versionless {
			opts = append(opts, jamb.WithVersioning(false))
		}

		if _, err := jamb.Init(path, opts...); err != nil {
			fatal("Failed to initialize plan", err)
		}

		for _, dir := range []string{"walls", "openings", "dimensions"} {
			if err := os.MkdirAll(filepath.Join(path, dir), 0755); err != nil {
				fatal("Failed to create category directory", err)
			}
		}

		if err := settings.Save(path, settings.Default()); err != nil {
			fatal("Failed to write settings", err)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Println("Initialized empty plan in", abs)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
