package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestInvalidResumeTokenError_Is(t *testing.T) {
	err := fmt.Errorf("resume: %w", &domain.InvalidResumeTokenError{Token: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidResumeToken)

	var target *domain.InvalidResumeTokenError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "abc", target.Token)
}

func TestHandlerError_Unwrap(t *testing.T) {
	err := &domain.HandlerError{Node: "gather_info", Err: domain.ErrUnexpectedSuspend}
	assert.ErrorIs(t, err, domain.ErrUnexpectedSuspend)
	assert.Contains(t, err.Error(), "gather_info")
}

func TestSuspend(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.Suspend(domain.InputRequest{Question: "When?"}))
	in, ok := domain.AsInterrupt(err)
	assert.True(t, ok)
	assert.Equal(t, domain.InputRequest{Question: "When?"}, in.Payload)

	_, ok = domain.AsInterrupt(errors.New("plain"))
	assert.False(t, ok)
}

func TestRoute(t *testing.T) {
	r := domain.Parallel("email", "calendar", "email")
	assert.True(t, r.IsParallel())
	assert.Equal(t, []string{"email", "calendar"}, r.Targets())

	s := domain.Single("stop")
	assert.False(t, s.IsParallel())
	assert.Equal(t, []string{"stop"}, s.Targets())
	assert.True(t, domain.Route{}.Empty())
}

func TestIsStopPhrase(t *testing.T) {
	for _, in := range []string{"stop", "Stop!", "ok Jarvis, cancel that.", "never mind", "quit please"} {
		assert.True(t, domain.IsStopPhrase(in), in)
	}
	for _, in := range []string{"", "cancel the meeting with Bob", "don't stop me now", "exit interview notes"} {
		assert.False(t, domain.IsStopPhrase(in), in)
	}
}
