package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/jarvis/pkg/domain"
)

// ConversationStore implements ports.ConversationStore as JSON files.
type ConversationStore struct {
	BasePath string
}

// NewConversationStore defaults to ".jarvis/conversations".
func NewConversationStore(basePath string) *ConversationStore {
	if basePath == "" {
		basePath = filepath.Join(".jarvis", "conversations")
	}
	return &ConversationStore{BasePath: basePath}
}

func (s *ConversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	if err := validName("conversation id", conv.ID); err != nil {
		return err
	}
	return writeJSON(s.BasePath, conv.ID, conv)
}

func (s *ConversationStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	if validName("conversation id", id) != nil {
		return nil, domain.ErrConversationNotFound
	}

	var conv domain.Conversation
	if err := readJSON(filepath.Join(s.BasePath, id+ext), &conv); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	if err := validName("conversation id", id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.BasePath, id+ext)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}
	return nil
}

func (s *ConversationStore) List(ctx context.Context) ([]string, error) {
	return listNames(s.BasePath)
}
