package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/jarvis/pkg/adapters/file"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunCheckpointStoreContract(t, file.New(t.TempDir()))
}

func TestFileConversationStore_Contract(t *testing.T) {
	ports.RunConversationStoreContract(t, file.NewConversationStore(t.TempDir()))
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	state := domain.NewState("schedule a meeting")
	require.NoError(t, file.New(dir).Save(ctx, &domain.Checkpoint{Token: "abc", State: *state}))

	// A second store over the same directory plays the role of another process.
	cp, err := file.New(dir).Consume(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "schedule a meeting", cp.State.UserInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "consumed checkpoints leave no files behind")
}

func TestFileStore_RejectsPathTokens(t *testing.T) {
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "cps"))

	err := store.Save(context.Background(), &domain.Checkpoint{Token: "../escape"})
	assert.Error(t, err)

	_, err = store.Consume(context.Background(), "../escape")
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}
