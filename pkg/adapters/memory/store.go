package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use. Checkpoints do not survive the process.
type Store struct {
	data map[string]*domain.Checkpoint
	mu   sync.Mutex
}

// NewStore creates a new in-memory checkpoint store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Checkpoint),
	}
}

// Save keeps a private copy of the checkpoint.
func (s *Store) Save(ctx context.Context, cp *domain.Checkpoint) error {
	copied := copyCheckpoint(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.Token] = copied
	return nil
}

// Consume removes and returns the checkpoint under a single lock, so only one caller can win.
func (s *Store) Consume(ctx context.Context, token string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.data[token]
	if !ok {
		return nil, domain.ErrCheckpointNotFound
	}
	delete(s.data, token)
	return cp, nil
}

// Load returns a copy so callers can't mutate the stored checkpoint.
func (s *Store) Load(ctx context.Context, token string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.data[token]
	if !ok {
		return nil, domain.ErrCheckpointNotFound
	}
	return copyCheckpoint(cp), nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, token)
	return nil
}

// List returns pending tokens, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := make([]string, 0, len(s.data))
	for token := range s.data {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens, nil
}

func copyCheckpoint(cp *domain.Checkpoint) *domain.Checkpoint {
	copied := *cp
	copied.State = *cp.State.Clone()
	return &copied
}
