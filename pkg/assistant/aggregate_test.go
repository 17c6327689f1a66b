package assistant_test

import (
	"testing"

	"github.com/aretw0/jarvis/pkg/assistant"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSummarize_FixedOrder(t *testing.T) {
	results := map[domain.ActionKind]*domain.ActionResult{
		domain.ActionContent:   {Status: domain.StatusCreated, Detail: "Drafted"},
		domain.ActionEmail:     {Status: domain.StatusSent, Detail: "Sent"},
		domain.ActionWebSearch: {Status: domain.StatusError, Error: "offline"},
		domain.ActionCalendar:  {Status: domain.StatusCreated},
	}
	want := "Here's what I did:\n" +
		"- Email: Sent\n" +
		"- Calendar: created\n" +
		"- Web search: failed (offline)\n" +
		"- Content: Drafted"

	// Every write order yields the same summary.
	orders := [][]domain.ActionKind{
		{domain.ActionContent, domain.ActionEmail, domain.ActionWebSearch, domain.ActionCalendar},
		{domain.ActionCalendar, domain.ActionWebSearch, domain.ActionEmail, domain.ActionContent},
	}
	for _, order := range orders {
		s := domain.NewState("")
		for _, kind := range order {
			domain.WithResult(kind, results[kind]).Apply(s)
		}
		assert.Equal(t, want, assistant.Summarize(s))
	}
}

func TestSummarize_Default(t *testing.T) {
	assert.Equal(t, assistant.DefaultSummary, assistant.Summarize(domain.NewState("")))
	assert.NotEmpty(t, assistant.DefaultSummary)
}
