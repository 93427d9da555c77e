package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/courier/pkg/adapters/memory"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/ports"
	"github.com/aretw0/courier/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Transcript
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Transcript)
	}
	s.data[sessionID] = t.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.data[sessionID]; ok {
		return t.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_TurnsAreSerialized(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	turns := 10
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			_, err := manager.Turn(ctx, id, func(_ context.Context, tr *domain.Transcript) error {
				tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, fmt.Sprint(val)))
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := manager.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, turns, "read-modify-write without locking would lose updates")
}

func TestManager_TurnRollsBackOnError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Turn(ctx, "s1", func(_ context.Context, tr *domain.Transcript) error {
		tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "first"))
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Turn(ctx, "s1", func(_ context.Context, tr *domain.Transcript) error {
		tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "orphan"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	history, err := manager.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Content)
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
			tr, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, tr)
		}()
	}
	wg.Wait()

	tr, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, tr.SessionID)
	assert.Empty(t, tr.Messages)
}

func TestManager_HistoryAndClear(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	history, err := manager.History(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = manager.Turn(ctx, "s", func(_ context.Context, tr *domain.Transcript) error {
		tr.Messages = append(tr.Messages, domain.NewMessage(domain.RoleUser, "hi"))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, manager.Clear(ctx, "s"))
	require.NoError(t, manager.Clear(ctx, "never-existed"))

	history, err = manager.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	ttl      time.Duration
	fail     error
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	_, err := manager.Turn(context.Background(), "s", func(context.Context, *domain.Transcript) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, locker.locked)
	assert.Equal(t, []string{"s"}, locker.unlocked)
	assert.Equal(t, 5*time.Second, locker.ttl)

	locker.fail = errors.New("redis down")
	called := false
	_, err = manager.Turn(context.Background(), "s", func(context.Context, *domain.Transcript) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
	assert.False(t, called)
}
