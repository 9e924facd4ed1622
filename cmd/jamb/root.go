package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb"
	"github.com/veikko/jamb/internal/settings"
	"github.com/veikko/jamb/pkg/core"
)

var (
	verbose     bool
	planFlag    string
	versionless bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jamb",
	Short: "A transactional plan store with door/wall dimensioning geometry",
	Long: `Jamb treats a directory of YAML building elements as a transactional
database and runs dimensioning analyses over it: orientation frames for
openings, adjacent perpendicular walls, and dimension chains from opening
edges to wall faces.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&planFlag, "plan", "", "Plan directory (default: nearest plan root, else cwd)")
	rootCmd.PersistentFlags().BoolVar(&versionless, "versionless", false, "Skip the revision history for this run")
}

// planPath resolves the plan directory: the --plan flag wins, then the
// nearest root indicator above the cwd, then the cwd itself.
func planPath() string {
	if planFlag != "" {
		return planFlag
	}
	cwd, err := os.Getwd()
	if err != nil {
		fatal("Failed to get CWD", err)
	}
	if root, err := jamb.FindPlanRoot(cwd); err == nil {
		return root
	}
	return cwd
}

// openService opens an existing plan along with its settings.
func openService() (*core.Service, settings.Settings, string) {
	path := planPath()

	opts := []jamb.Option{
		jamb.WithMustExist(true),
		jamb.WithLogger(slog.Default()),
		jamb.WithDevSafety(false),
	}
	if versionless {
		opts = append(opts, jamb.WithVersioning(false))
	}

	svc, err := jamb.New(path, opts...)
	if err != nil {
		fatal("Failed to open plan", err)
	}

	cfg, err := settings.Load(path)
	if err != nil {
		fatal("Failed to load settings", err)
	}

	return svc, cfg, path
}

// exitReport prints the report message if any and exits with the
// status's exit code.
func exitReport(report core.RunReport) {
	if report.Message != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", report.Status, report.Message)
	}
	os.Exit(report.Status.ExitCode())
}
