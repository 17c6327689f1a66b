package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/jarvis/pkg/adapters/memory"
	jredis "github.com/aretw0/jarvis/pkg/adapters/redis"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.Conversation
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, conv *domain.Conversation) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.Conversation)
	}
	c := *conv
	c.History = append([]domain.Message(nil), conv.History...)
	s.data[conv.ID] = c
	return nil
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.data[id]; ok {
		c.History = append([]domain.Message(nil), c.History...)
		return &c, nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *SlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerialisesTurns(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	turns := 10
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(_ context.Context, c *domain.Conversation) error {
				c.Append(domain.RoleUser, fmt.Sprintf("turn %d", n))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	conv, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, conv.History, turns, "no turn may be lost")
	assert.False(t, conv.UpdatedAt.IsZero())
}

func TestManager_UpdateFailureSavesNothing(t *testing.T) {
	manager := session.NewManager(memory.NewConversationStore())
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := manager.Update(ctx, "c1", func(_ context.Context, c *domain.Conversation) error {
		c.Append(domain.RoleUser, "hello")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, conv)
		}()
	}
	wg.Wait()

	conv, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, conv.ID)
	assert.Empty(t, conv.History)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := jredis.NewConversationStore(client, "", 0)
	// Two managers stand in for two replicas sharing Redis.
	a := session.NewManager(store, session.WithLocker(jredis.NewLocker(client, "")), session.WithLockTTL(5*time.Second))
	b := session.NewManager(store, session.WithLocker(jredis.NewLocker(client, "")))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i, mgr := range []*session.Manager{a, b, a, b} {
		wg.Add(1)
		go func(n int, mgr *session.Manager) {
			defer wg.Done()
			_, err := mgr.Update(ctx, "shared", func(_ context.Context, c *domain.Conversation) error {
				c.Append(domain.RoleUser, fmt.Sprintf("turn %d", n))
				return nil
			})
			assert.NoError(t, err)
		}(i, mgr)
	}
	wg.Wait()

	conv, err := a.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, conv.History, 4)
	assert.False(t, mr.Exists("jarvis:lock:shared"), "lock released")
}
