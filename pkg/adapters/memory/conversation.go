package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/jarvis/pkg/domain"
)

// ConversationStore implements ports.ConversationStore in memory.
type ConversationStore struct {
	data map[string]domain.Conversation
	mu   sync.RWMutex
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{data: make(map[string]domain.Conversation)}
}

func (s *ConversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	copied := *conv
	copied.History = append([]domain.Message(nil), conv.History...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conv.ID] = copied
	return nil
}

func (s *ConversationStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.data[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	conv.History = append([]domain.Message(nil), conv.History...)
	return &conv, nil
}

func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *ConversationStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
