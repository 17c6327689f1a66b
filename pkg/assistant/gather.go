package assistant

import (
	"context"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/ports"
)

// HelpQuestion is asked when no intent could be recognised.
const HelpQuestion = "How can I help? I can send emails, schedule meetings, find contacts, search the web or write content."

// DetailQuestion is asked when the extractor wants more input but names no question or field.
const DetailQuestion = "Could you give me a few more details?"

var questions = map[string]string{
	"recipient":     "Who should I send the email to?",
	"subject":       "What is the subject of your email?",
	"body":          "What should the email say?",
	"date":          "What day should the meeting be?",
	"time":          "What time should the meeting be?",
	"participants":  "Who do you want to meet?",
	"query":         "What should I search for?",
	"content_topic": "What should the content be about?",
	"contact_name":  "Whose contact details are you looking for?",
}

// QuestionFor returns the clarifying question for a missing entity.
func QuestionFor(entity string) string {
	if q, ok := questions[entity]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me the %s?", entity)
}

// Missing lists the required entities of intents that entities does not cover, in intent order.
func Missing(intents []domain.Intent, entities domain.Entities) []string {
	var out []string
	seen := make(map[string]bool)
	for _, intent := range intents {
		for _, key := range intent.RequiredEntities() {
			if !entities.Has(key) && !seen[key] {
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	return out
}

// gatherInfo runs extraction and decides whether the request can be served.
func gatherInfo(extractor ports.Extractor) graph.Handler {
	return func(ctx context.Context, s domain.WorkflowState) (domain.Update, error) {
		if domain.IsStopPhrase(s.UserInput) {
			return stopUpdate(), nil
		}

		ext, err := extractor.Extract(ctx, s.UserInput, s.History)
		if err != nil {
			return domain.Update{}, fmt.Errorf("extraction failed: %w", err)
		}

		intents := knownIntents(ext.Intent)
		for _, i := range intents {
			if i == domain.IntentStop {
				return stopUpdate(), nil
			}
		}

		found := make(domain.Entities, len(ext.Entities))
		for k, v := range ext.Entities {
			if !v.Empty() {
				found[k] = v
			}
		}
		merged := make(domain.Entities, len(s.Entities)+len(found))
		for k, v := range s.Entities {
			merged[k] = v
		}
		for k, v := range found {
			merged[k] = v
		}

		// A follow-up answer with no intent of its own continues the pending request
		// and fills the first field that was still missing.
		if len(intents) == 0 && len(s.Intent) > 0 {
			intents = s.Intent
			if missing := Missing(intents, merged); len(missing) > 0 && s.UserInput != "" {
				found[missing[0]] = domain.Text(s.UserInput)
				merged[missing[0]] = found[missing[0]]
			}
		}

		missing := Missing(intents, merged)
		needsMore := len(intents) == 0 || len(missing) > 0 || ext.NeedsMoreInfo

		update := domain.Update{
			Intent:        append([]domain.Intent{}, intents...),
			Entities:      found,
			NeedsMoreInfo: domain.Ptr(needsMore),
			Actions:       []string{},
		}
		if !needsMore {
			update.ClarifyingQuestion = domain.Ptr("")
			update.Actions = actionsFor(intents)
			return update, nil
		}

		question := ext.ClarifyingQuestion
		switch {
		case question != "":
		case len(intents) == 0:
			question = HelpQuestion
		case len(missing) == 0:
			question = DetailQuestion
		default:
			question = QuestionFor(missing[0])
		}
		update.ClarifyingQuestion = domain.Ptr(question)
		return update, nil
	}
}

func stopUpdate() domain.Update {
	return domain.Update{
		Intent:        []domain.Intent{domain.IntentStop},
		NeedsMoreInfo: domain.Ptr(false),
		Actions:       []string{},
	}
}

func knownIntents(in []domain.Intent) []domain.Intent {
	var out []domain.Intent
	seen := make(map[domain.Intent]bool)
	for _, i := range in {
		if i.Known() && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}

func actionsFor(intents []domain.Intent) []string {
	var out []string
	for _, i := range intents {
		if kind, ok := i.Action(); ok {
			out = append(out, ActionNode(kind))
		}
	}
	return out
}
