package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/jarvis"
	"github.com/aretw0/jarvis/internal/presentation/tui"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the assistant",
	Long: `With a message, sends one turn of the conversation and prints the reply.
Without one, starts an interactive session that reads a turn per line.
Pending questions are answered by the next turn of the same conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("conversation")
		if len(args) > 0 {
			if id == "" {
				id = "default"
			}
			return runOnce(cmd, func(ctx context.Context, a *jarvis.Assistant) (*domain.Outcome, error) {
				return a.Chat(ctx, id, strings.Join(args, " "))
			})
		}
		if id == "" {
			id = uuid.NewString()
		}
		return interactive(cmd, id)
	},
}

func init() {
	chatCmd.Flags().StringP("conversation", "c", "", "Conversation ID (interactive sessions get a fresh one by default)")
	chatCmd.Flags().Bool("headless", false, "No banner, prompt or markdown rendering")
	rootCmd.AddCommand(chatCmd)
}

func interactive(cmd *cobra.Command, conversationID string) error {
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

	headless, _ := cmd.Flags().GetBool("headless")
	r := &jarvis.Runner{
		Input:    cmd.InOrStdin(),
		Output:   cmd.OutOrStdout(),
		Headless: headless,
	}
	if !headless {
		tui.PrintBanner(cmd.OutOrStdout())
		r.Renderer = jarvis.ContentRenderer(renderer())
	}
	stack.Logger.Info("Chat session started", "conversation_id", conversationID)

	err = r.Run(ctx, stack.Assistant, conversationID)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
