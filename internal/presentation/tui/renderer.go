package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer that adapts to a light or dark background.
func NewRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// PlainRenderer returns markdown unchanged. It is used for non-TTY output.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// FormatOutcome describes an outcome as markdown: the reply, and for suspended runs
// the token needed to continue.
func FormatOutcome(out *domain.Outcome) string {
	var sb strings.Builder
	reply := out.Reply()
	if out.Suspended() {
		sb.WriteString("**Jarvis needs more information:** ")
		sb.WriteString(reply)
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Resume with `jarvis resume %s \"<your answer>\"`\n", out.Token)
		return sb.String()
	}
	sb.WriteString(reply)
	sb.WriteString("\n")
	return sb.String()
}
