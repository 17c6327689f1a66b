package azopenai

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
	history []domain.Message
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string, history []domain.Message, _ string) (string, error) {
	s.calls++
	s.history = history
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[len(s.replies)-1]
	if s.calls <= len(s.replies) {
		reply = s.replies[s.calls-1]
	}
	return reply, nil
}

func TestParse(t *testing.T) {
	reply := "```json\n" + `{
		"intent": ["schedule_meeting", "send_email"],
		"entities": {"date": "tomorrow", "time": 10, "participants": ["Bob", "Charlie"]},
		"needs_more_info": "true",
		"clarifying_question": "What should the email say?",
		"response": null
	}` + "\n```"

	ext, err := Parse(reply)
	require.NoError(t, err)
	assert.Equal(t, []domain.Intent{domain.IntentScheduleMeeting, domain.IntentSendEmail}, ext.Intent)
	assert.Equal(t, "tomorrow", ext.Entities.Get("date"))
	assert.Equal(t, "10", ext.Entities.Get("time"))
	assert.Equal(t, domain.List("Bob", "Charlie"), ext.Entities["participants"])
	assert.True(t, ext.NeedsMoreInfo)
	assert.Equal(t, "What should the email say?", ext.ClarifyingQuestion)
	assert.Empty(t, ext.Response)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":       "Sure! I will send that email.",
		"unknown intent": `{"intent": ["order_pizza"]}`,
		"object entity":  `{"intent": ["send_email"], "entities": {"recipient": {"name": "Bob"}}}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(reply)
			assert.ErrorIs(t, err, ErrMalformedOutput)
		})
	}
}

func TestExtractor_RetriesMalformedReplies(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"oops", `{"intent": ["search_web"], "entities": {"query": "go generics"}}`}}
	history := []domain.Message{{Role: domain.RoleUser, Content: "hi"}}

	ext, err := NewExtractor(c).Extract(context.Background(), "search go generics", history)
	require.NoError(t, err)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, history, c.history)
	assert.Equal(t, "go generics", ext.Entities.Get("query"))
}

func TestExtractor_GivesUp(t *testing.T) {
	c := &scriptedCompleter{replies: []string{"still not json"}}

	_, err := NewExtractor(c, WithRetries(1)).Extract(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, 2, c.calls)
}

func TestExtractor_TransportErrorIsNotRetried(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("401 unauthorized")}

	_, err := NewExtractor(c).Extract(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 unauthorized")
	assert.Equal(t, 1, c.calls)
}
