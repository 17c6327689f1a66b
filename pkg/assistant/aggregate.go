package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/jarvis/pkg/domain"
)

// DefaultSummary is used when no action produced a result.
const DefaultSummary = "I wasn't able to complete any actions for that request."

func aggregate(_ context.Context, s domain.WorkflowState) (domain.Update, error) {
	return domain.Update{FinalResponse: domain.Ptr(Summarize(&s))}, nil
}

// Summarize composes the final response from the populated result slots. The order is
// always email, calendar, contact, web search, content, whatever order the branches
// finished in. Failed actions are listed as error entries.
func Summarize(s *domain.WorkflowState) string {
	var lines []string
	for _, kind := range domain.ActionOrder {
		r := s.Result(kind)
		if r == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", kind.Title(), describe(r)))
	}
	if len(lines) == 0 {
		return DefaultSummary
	}
	return "Here's what I did:\n" + strings.Join(lines, "\n")
}

func describe(r *domain.ActionResult) string {
	if r.IsError() {
		msg := r.Error
		if msg == "" {
			msg = r.Detail
		}
		if msg == "" {
			return "failed"
		}
		return "failed (" + msg + ")"
	}
	if r.Detail != "" {
		return r.Detail
	}
	if r.Status != "" {
		return strings.ToLower(string(r.Status))
	}
	return "done"
}
