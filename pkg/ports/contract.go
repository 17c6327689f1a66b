package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	newCheckpoint := func(token string) *domain.Checkpoint {
		state := domain.NewState("email bob")
		state.Entities["recipient"] = domain.Text("bob")
		state.Entities["participants"] = domain.List("bob", "alice")
		state.NeedsMoreInfo = true
		return &domain.Checkpoint{
			Token:       token,
			RunID:       prefix + "-run",
			SuspendedAt: "get_user_input",
			Reentry:     "gather_info",
			Superstep:   2,
			State:       *state,
			CreatedAt:   time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		token := prefix + "-load"
		require.NoError(t, store.Save(ctx, newCheckpoint(token)))
		defer func() { _ = store.Delete(ctx, token) }()

		loaded, err := store.Load(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, token, loaded.Token)
		assert.Equal(t, "get_user_input", loaded.SuspendedAt)
		assert.Equal(t, "gather_info", loaded.Reentry)
		assert.Equal(t, "bob", loaded.State.Entities.Get("recipient"))
		assert.Equal(t, "bob, alice", loaded.State.Entities.Get("participants"))
		assert.True(t, loaded.State.NeedsMoreInfo)

		// Load does not consume.
		_, err = store.Load(ctx, token)
		assert.NoError(t, err)
	})

	t.Run("Consume is single-use", func(t *testing.T) {
		token := prefix + "-consume"
		require.NoError(t, store.Save(ctx, newCheckpoint(token)))

		cp, err := store.Consume(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, token, cp.Token)

		_, err = store.Consume(ctx, token)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound, "second Consume must fail")

		_, err = store.Load(ctx, token)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Unknown token", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)

		_, err = store.Consume(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)

		assert.NoError(t, store.Delete(ctx, prefix+"-missing"))
	})

	t.Run("List", func(t *testing.T) {
		t1, t2 := prefix+"-list-1", prefix+"-list-2"
		require.NoError(t, store.Save(ctx, newCheckpoint(t1)))
		require.NoError(t, store.Save(ctx, newCheckpoint(t2)))
		defer func() {
			_ = store.Delete(ctx, t1)
			_ = store.Delete(ctx, t2)
		}()

		tokens, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, tokens, t1)
		assert.Contains(t, tokens, t2)

		require.NoError(t, store.Delete(ctx, t1))
		tokens, err = store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, tokens, t1)
	})
}

// RunConversationStoreContract verifies a ConversationStore implementation.
func RunConversationStoreContract(t *testing.T, store ConversationStore) {
	ctx := context.Background()
	id := "conv-contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		conv := &domain.Conversation{ID: id, PendingToken: "tok"}
		conv.Append(domain.RoleUser, "email bob")
		conv.Append(domain.RoleAssistant, "What should the subject be?")
		require.NoError(t, store.Save(ctx, conv))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "tok", loaded.PendingToken)
		require.Len(t, loaded.History, 2)
		assert.Equal(t, domain.RoleAssistant, loaded.History[1].Role)
	})

	t.Run("List and Delete", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id)

		require.NoError(t, store.Delete(ctx, id))
		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})
}
