package main

import (
	"context"
	"fmt"

	"github.com/aretw0/jarvis/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph",
	Long:  `Outputs a Mermaid diagram (graph TD) of the assistant workflow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stack, err := buildStack(cmd, cfg)
		if err != nil {
			return err
		}
		defer stack.Close(context.Background())
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(stack.Assistant.Graph(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
