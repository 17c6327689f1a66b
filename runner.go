package jarvis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ContentRenderer transforms a reply before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Runner drives an interactive conversation over line-based IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// Run reads one user turn per line and answers through Chat until EOF, "exit" or "quit",
// or until ctx is done.
func (r *Runner) Run(ctx context.Context, a *Assistant, conversationID string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewScanner(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- Jarvis (type 'exit' to leave) ---")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		input := strings.TrimSpace(lines.Text())
		switch input {
		case "":
			continue
		case "exit", "quit":
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		out, err := a.Chat(ctx, conversationID, input)
		if err != nil {
			// A failed turn is reported and the conversation goes on.
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}

		reply := out.Reply()
		if r.Renderer != nil {
			if rendered, err := r.Renderer(reply); err == nil {
				reply = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(reply))
	}
}
