// Package actions contains action handlers that ship with Jarvis.
//
// The dry-run handlers confirm what they would have done without touching any
// external service. They are the default capabilities of the CLI and the servers.
package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/ports"
)

// DryRun returns a handler for kind that reports success without side effects.
func DryRun(kind domain.ActionKind) ports.ActionHandler {
	return ports.ActionHandlerFunc(func(ctx context.Context, es domain.Entities) (*domain.ActionResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch kind {
		case domain.ActionEmail:
			return &domain.ActionResult{
				Status: domain.StatusSent,
				Detail: fmt.Sprintf("Email to %s sent%s", orDefault(es.Get("recipient"), "the recipient"), quoted(es.Get("subject"))),
				Data:   map[string]any{"to": es.Get("recipient"), "subject": es.Get("subject")},
			}, nil
		case domain.ActionCalendar:
			when := es.Get("date")
			if t := es.Get("time"); t != "" {
				when = joinNonEmpty(when, "at "+t)
			}
			return &domain.ActionResult{
				Status: domain.StatusCreated,
				Detail: fmt.Sprintf("Meeting with %s scheduled for %s", orDefault(es.Get("participants"), "the participants"), orDefault(when, "the requested time")),
				Data:   map[string]any{"date": es.Get("date"), "time": es.Get("time"), "participants": es["participants"].String()},
			}, nil
		case domain.ActionContact:
			name := es.Get("contact_name")
			return &domain.ActionResult{
				Status: domain.StatusFound,
				Detail: fmt.Sprintf("Found contact details for %s", orDefault(name, "the contact")),
				Data:   map[string]any{"name": name},
			}, nil
		case domain.ActionWebSearch:
			detail := "Searched the web"
			if q := es.Get("query"); q != "" {
				detail += fmt.Sprintf(" for %q", q)
			}
			return &domain.ActionResult{
				Status: domain.StatusOK,
				Detail: detail,
				Data:   map[string]any{"query": es.Get("query")},
			}, nil
		case domain.ActionContent:
			return &domain.ActionResult{
				Status: domain.StatusCreated,
				Detail: fmt.Sprintf("Drafted content about %s", orDefault(es.Get("content_topic"), "the requested topic")),
				Data:   map[string]any{"topic": es.Get("content_topic")},
			}, nil
		}
		return nil, fmt.Errorf("no dry-run handler for action %q", kind)
	})
}

// DryRunAll returns a dry-run handler for every known action kind.
func DryRunAll() map[domain.ActionKind]ports.ActionHandler {
	out := make(map[domain.ActionKind]ports.ActionHandler, len(domain.ActionOrder))
	for _, kind := range domain.ActionOrder {
		out[kind] = DryRun(kind)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func quoted(v string) string {
	if v == "" {
		return ""
	}
	return fmt.Sprintf(" %q", v)
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
