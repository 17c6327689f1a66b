package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/jarvis/pkg/adapters/memory"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/persistence/middleware"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretCheckpoint(token string) *domain.Checkpoint {
	state := domain.NewState("email my lawyer")
	state.Entities["recipient"] = domain.Text("secret@example.com")
	return &domain.Checkpoint{Token: token, SuspendedAt: "get_user_input", Reentry: "gather_info", State: *state}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	ports.RunCheckpointStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, secretCheckpoint("tok")))

	stored, err := underlying.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, stored.State.Entities.Get("recipient"), "state must not be readable in the underlying store")
	assert.Empty(t, stored.State.UserInput)
	assert.Equal(t, "get_user_input", stored.SuspendedAt)

	loaded, err := secure.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "secret@example.com", loaded.State.Entities.Get("recipient"))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	require.NoError(t, mwOld(underlying).Save(ctx, secretCheckpoint("rot")))

	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	require.NoError(t, err)

	loaded, err := mwNew(underlying).Load(ctx, "rot")
	require.NoError(t, err)
	assert.Equal(t, "email my lawyer", loaded.State.UserInput)

	require.NoError(t, mwNew(underlying).Save(ctx, loaded))
	_, err = mwOld(underlying).Load(ctx, "rot")
	assert.Error(t, err, "old key alone cannot open checkpoints sealed with the new key")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestEncryptionMiddleware_RejectsPlainCheckpoints(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, secretCheckpoint("plain")))

	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.Error(t, err)
}
