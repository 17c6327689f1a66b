package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/jarvis"
	"github.com/aretw0/jarvis/internal/presentation/tui"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run a single request",
	Long: `Runs one request through the assistant and prints the reply.
If the assistant needs more information it prints a resume token; continue with 'jarvis resume'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *jarvis.Assistant) (*domain.Outcome, error) {
			return a.Run(ctx, strings.Join(args, " "))
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <token> <answer>",
	Short: "Answer a suspended run",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(ctx context.Context, a *jarvis.Assistant) (*domain.Outcome, error) {
			out, err := a.Resume(ctx, args[0], strings.Join(args[1:], " "))
			if errors.Is(err, domain.ErrInvalidResumeToken) {
				return nil, fmt.Errorf("%w (tokens only survive between commands with the file or redis store)", err)
			}
			return out, err
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd, resumeCmd)
}

// runOnce builds the assistant, performs one call and prints its outcome.
func runOnce(cmd *cobra.Command, call func(context.Context, *jarvis.Assistant) (*domain.Outcome, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stack, err := buildStack(cmd, cfg)
	if err != nil {
		return err
	}
	defer stack.Close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := call(ctx, stack.Assistant)
	if err != nil {
		return err
	}
	printMarkdown(cmd, tui.FormatOutcome(out))
	return nil
}
