package main

import (
	"fmt"
	"os"

	"github.com/aretw0/jarvis/internal/cli"
	"github.com/aretw0/jarvis/internal/config"
	"github.com/aretw0/jarvis/internal/presentation/tui"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "jarvis",
	Short:         "Jarvis is a conversational personal assistant",
	Long:          `Jarvis understands requests like "email Bob about the launch and book a meeting tomorrow at 3pm", asks for what is missing and runs the actions in parallel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory, file or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every node transition")
}

// loadConfig reads the config file and environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func buildStack(cmd *cobra.Command, cfg *config.Config) (*cli.Stack, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Build(cfg, cli.BuildOptions{Debug: debug})
}

// renderer picks glamour for color terminals and plain text otherwise.
func renderer() tui.Renderer {
	if termenv.EnvColorProfile() == termenv.Ascii {
		return tui.PlainRenderer
	}
	r, err := tui.NewRenderer()
	if err != nil {
		return tui.PlainRenderer
	}
	return r
}

func printMarkdown(cmd *cobra.Command, markdown string) {
	out, err := renderer()(markdown)
	if err != nil {
		out = markdown
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
}
