package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/jarvis"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of jarvis",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jarvis version %s\n", strings.TrimSpace(jarvis.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
