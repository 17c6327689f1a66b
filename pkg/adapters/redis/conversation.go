package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/jarvis/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ConversationStore implements ports.ConversationStore using Redis strings plus a set index.
type ConversationStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewConversationStore creates a conversation store. ttl of zero keeps conversations forever.
func NewConversationStore(client *backend.Client, prefix string, ttl time.Duration) *ConversationStore {
	if prefix == "" {
		prefix = "jarvis:conversation:"
	}
	return &ConversationStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ConversationStore) Save(ctx context.Context, conv *domain.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+conv.ID, data, s.ttl)
	pipe.SAdd(ctx, s.prefix+"index", conv.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	val, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	var conv domain.Conversation
	if err := json.Unmarshal([]byte(val), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.prefix+id)
	pipe.SRem(ctx, s.prefix+"index", id)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns known conversation ids. Ids whose keys expired are dropped from the index.
func (s *ConversationStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.prefix+"index").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.client.Exists(ctx, s.prefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check conversation %s: %w", id, err)
		}
		if n == 0 {
			_ = s.client.SRem(ctx, s.prefix+"index", id).Err()
			continue
		}
		live = append(live, id)
	}
	return live, nil
}
