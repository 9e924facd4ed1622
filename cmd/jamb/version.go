package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veikko/jamb"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of jamb",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jamb version %s\n", strings.TrimSpace(jamb.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
