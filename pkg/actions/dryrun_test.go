package actions_test

import (
	"context"
	"testing"

	"github.com/aretw0/jarvis/pkg/actions"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	es := domain.Entities{
		"recipient":    domain.Text("Bob"),
		"subject":      domain.Text("Summary"),
		"date":         domain.Text("tomorrow"),
		"time":         domain.Text("10am"),
		"participants": domain.List("Bob", "Alice"),
		"query":        domain.Text("errgroup"),
	}

	email, err := actions.DryRun(domain.ActionEmail).Handle(ctx, es)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, email.Status)
	assert.Equal(t, `Email to Bob sent "Summary"`, email.Detail)

	cal, err := actions.DryRun(domain.ActionCalendar).Handle(ctx, es)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, cal.Status)
	assert.Equal(t, "Meeting with Bob, Alice scheduled for tomorrow at 10am", cal.Detail)

	search, err := actions.DryRun(domain.ActionWebSearch).Handle(ctx, es)
	require.NoError(t, err)
	assert.Equal(t, `Searched the web for "errgroup"`, search.Detail)

	contact, err := actions.DryRun(domain.ActionContact).Handle(ctx, domain.Entities{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFound, contact.Status)
}

func TestDryRun_UnknownKind(t *testing.T) {
	_, err := actions.DryRun("fax").Handle(context.Background(), nil)
	assert.Error(t, err)
}

func TestDryRunAll(t *testing.T) {
	assert.Len(t, actions.DryRunAll(), len(domain.ActionOrder))
}
