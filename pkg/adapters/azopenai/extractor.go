package azopenai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// SystemPrompt instructs the model to return intents and entities as JSON.
const SystemPrompt = `You are the information gathering step of Jarvis, a personal assistant.

1. Identify the user's intent(s) from the allowed list.
2. Extract every REQUIRED field for each intent.
3. If any required field is missing, set "needs_more_info" to true and write a clear "clarifying_question".
4. Reply with a single JSON object and nothing else.

Allowed intents and fields:

- send_email: required recipient, subject, body; optional cc, attachments, signature
- schedule_meeting: required date, time, participants; optional location, duration, platform
- search_web: required query
- create_content: required content_topic; optional tone, format, length
- find_contact: required contact_name; optional organization, role
- stop: no fields

If several intents are present, extract fields for all of them. Entity values are strings
or lists of strings. Use earlier turns of the conversation to fill fields the latest
message leaves out.

Example:

{
  "intent": ["send_email", "schedule_meeting"],
  "entities": {
    "recipient": "Alice",
    "subject": "Demo",
    "date": "tomorrow",
    "time": "3 PM",
    "participants": ["Bob", "Charlie"]
  },
  "needs_more_info": true,
  "clarifying_question": "What should the email say?",
  "response": "I see you're trying to send an email and schedule a meeting."
}`

// ErrMalformedOutput is returned when the model reply cannot be turned into an extraction.
var ErrMalformedOutput = errors.New("malformed extraction output")

// Option configures an Extractor.
type Option func(*Extractor)

// WithRetries sets how many extra attempts are made after a malformed reply.
func WithRetries(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSystemPrompt overrides SystemPrompt.
func WithSystemPrompt(p string) Option {
	return func(e *Extractor) {
		e.prompt = p
	}
}

// Extractor implements ports.Extractor with a chat model.
type Extractor struct {
	completer Completer
	prompt    string
	retries   int
	logger    *slog.Logger
}

// NewExtractor creates an extractor using c for completions.
func NewExtractor(c Completer, opts ...Option) *Extractor {
	e := &Extractor{
		completer: c,
		prompt:    SystemPrompt,
		retries:   2,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract implements ports.Extractor. Transport errors are returned at once; malformed
// replies are retried before giving up with ErrMalformedOutput.
func (e *Extractor) Extract(ctx context.Context, text string, history []domain.Message) (domain.Extraction, error) {
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		raw, err := e.completer.Complete(ctx, e.prompt, history, text)
		if err != nil {
			return domain.Extraction{}, fmt.Errorf("completion failed: %w", err)
		}

		ext, err := Parse(raw)
		if err == nil {
			e.logger.Debug("Extraction parsed", "intents", ext.Intent, "needs_more_info", ext.NeedsMoreInfo)
			return ext, nil
		}
		lastErr = err
		e.logger.Warn("Discarding model reply", "attempt", attempt+1, "error", err)
	}
	return domain.Extraction{}, lastErr
}

type rawExtraction struct {
	Intent             []string       `mapstructure:"intent"`
	Entities           map[string]any `mapstructure:"entities"`
	NeedsMoreInfo      bool           `mapstructure:"needs_more_info"`
	ClarifyingQuestion string         `mapstructure:"clarifying_question"`
	Response           string         `mapstructure:"response"`
}

// Parse decodes a model reply. Code fences around the JSON object are tolerated, loose
// scalar types are coerced, and unknown intents are rejected.
func Parse(reply string) (domain.Extraction, error) {
	body := stripFences(reply)

	var generic map[string]any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	var raw rawExtraction
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return domain.Extraction{}, err
	}
	if err := dec.Decode(generic); err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	out := domain.Extraction{
		Entities:           make(domain.Entities, len(raw.Entities)),
		NeedsMoreInfo:      raw.NeedsMoreInfo,
		ClarifyingQuestion: raw.ClarifyingQuestion,
		Response:           raw.Response,
	}
	for _, tag := range raw.Intent {
		intent := domain.Intent(strings.ToLower(strings.TrimSpace(tag)))
		if !intent.Known() {
			return domain.Extraction{}, fmt.Errorf("%w: unknown intent %q", ErrMalformedOutput, tag)
		}
		out.Intent = append(out.Intent, intent)
	}
	for k, v := range raw.Entities {
		if _, isObject := v.(map[string]any); isObject {
			return domain.Extraction{}, fmt.Errorf("%w: entity %q must be a string or a list of strings", ErrMalformedOutput, k)
		}
		ent, err := domain.FromAny(v)
		if err != nil {
			return domain.Extraction{}, fmt.Errorf("%w: entity %q: %v", ErrMalformedOutput, k, err)
		}
		out.Entities[k] = ent
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
