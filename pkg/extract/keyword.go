// Package extract provides a deterministic, dependency-free information extractor.
// It is meant for demos, tests and offline use; production deployments plug an
// LLM-backed ports.Extractor instead.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/jarvis/pkg/domain"
)

// rule maps trigger words to an intent.
type rule struct {
	intent domain.Intent
	words  []string
}

var rules = []rule{
	{domain.IntentScheduleMeeting, []string{"schedule", "meeting", "meet", "calendar", "appointment"}},
	{domain.IntentSendEmail, []string{"email", "e-mail", "mail"}},
	{domain.IntentFindContact, []string{"contact", "phone number", "contact details"}},
	{domain.IntentSearchWeb, []string{"search", "look up", "google", "find out"}},
	{domain.IntentCreateContent, []string{"write", "draft", "blog", "article", "post about"}},
}

var (
	emailAddr   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
	timeOfDay   = regexp.MustCompile(`(?i)\b(\d{1,2}(:\d{2})?\s?(am|pm)|\d{1,2}:\d{2}|noon|midnight)\b`)
	dayWord     = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|next week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	withPeople  = regexp.MustCompile(`\bwith ([A-Z][\w]*(?:(?:,\s*|\s+and\s+)[A-Z][\w]*)*)`)
	toPerson    = regexp.MustCompile(`\b(?:email|mail|message|send (?:an? )?(?:email|mail) to|write to|to) ([A-Z][\w]*)`)
	aboutTopic  = regexp.MustCompile(`(?i)\babout (.+?)(?:[.!?]|$)`)
	searchQuery = regexp.MustCompile(`(?i)\b(?:search(?: the web)?(?: for)?|look up|google) (.+?)(?:[.!?]|$)`)
	contactName = regexp.MustCompile(`\b(?i:contact (?:details |info )?(?:for|of)|phone number (?:for|of)|find) ([A-Z][\w]*(?:\s[A-Z][\w]*)?)`)
	listSplit   = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

// Keyword recognises intents with a static keyword table and pulls entities with regular expressions.
type Keyword struct{}

// NewKeyword returns a keyword extractor.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Extract implements ports.Extractor. It never fails and never asks questions itself:
// the assistant decides what is missing.
func (k *Keyword) Extract(ctx context.Context, text string, history []domain.Message) (domain.Extraction, error) {
	out := domain.Extraction{Entities: make(domain.Entities)}
	if domain.IsStopPhrase(text) {
		out.Intent = []domain.Intent{domain.IntentStop}
		return out, nil
	}

	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, w := range r.words {
			if containsWord(lower, w) {
				out.Intent = append(out.Intent, r.intent)
				break
			}
		}
	}

	for _, intent := range out.Intent {
		switch intent {
		case domain.IntentScheduleMeeting:
			if m := dayWord.FindString(text); m != "" {
				out.Entities["date"] = domain.Text(strings.ToLower(m))
			}
			if m := timeOfDay.FindString(text); m != "" {
				out.Entities["time"] = domain.Text(m)
			}
			if m := withPeople.FindStringSubmatch(text); m != nil {
				out.Entities["participants"] = domain.List(listSplit.Split(m[1], -1)...)
			}
		case domain.IntentSendEmail:
			if m := emailAddr.FindString(text); m != "" {
				out.Entities["recipient"] = domain.Text(m)
			} else if m := toPerson.FindStringSubmatch(text); m != nil {
				out.Entities["recipient"] = domain.Text(m[1])
			}
			if m := aboutTopic.FindStringSubmatch(text); m != nil {
				out.Entities["subject"] = domain.Text(strings.TrimSpace(m[1]))
			}
		case domain.IntentSearchWeb:
			if m := searchQuery.FindStringSubmatch(text); m != nil {
				out.Entities["query"] = domain.Text(strings.TrimSpace(m[1]))
			}
		case domain.IntentCreateContent:
			if m := aboutTopic.FindStringSubmatch(text); m != nil {
				out.Entities["content_topic"] = domain.Text(strings.TrimSpace(m[1]))
			}
		case domain.IntentFindContact:
			if m := contactName.FindStringSubmatch(text); m != nil {
				out.Entities["contact_name"] = domain.Text(m[1])
			}
		}
	}
	return out, nil
}

// containsWord matches w on word boundaries so "mail" does not fire inside "mailbox".
func containsWord(text, w string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], w)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(w)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' || ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}
