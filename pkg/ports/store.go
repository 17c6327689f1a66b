package ports

import (
	"context"

	"github.com/aretw0/jarvis/pkg/domain"
)

// CheckpointStore persists the continuation state of suspended runs.
// Any number of checkpoints may be stored at once.
type CheckpointStore interface {
	// Save persists the checkpoint under cp.Token.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Consume atomically loads and removes the checkpoint for token.
	// Returns domain.ErrCheckpointNotFound if it does not exist or was already consumed.
	Consume(ctx context.Context, token string) (*domain.Checkpoint, error)

	// Load reads a checkpoint without consuming it.
	Load(ctx context.Context, token string) (*domain.Checkpoint, error)

	// Delete removes a checkpoint. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// List returns the tokens of every pending checkpoint.
	List(ctx context.Context) ([]string, error)
}

// ConversationStore persists caller-side conversation history between turns.
type ConversationStore interface {
	Save(ctx context.Context, conv *domain.Conversation) error

	// Load returns domain.ErrConversationNotFound if the conversation does not exist.
	Load(ctx context.Context, id string) (*domain.Conversation, error)

	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
