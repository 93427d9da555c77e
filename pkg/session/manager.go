package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/courier/internal/logging"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
// It covers a full turn at the default tool and completion timeouts.
const DefaultLockTTL = 3 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates transcript access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.TranscriptStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session Manager with the given persistence store.
func NewManager(store ports.TranscriptStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing transcript from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	var t *domain.Transcript
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		t, err = m.store.Load(ctx, sessionID)
		return err
	})
	return t, err
}

// LoadOrStart loads a transcript, creating and persisting an empty one if
// the session does not exist yet.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	var t *domain.Transcript
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		t, err = m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(t.Messages) > 0 {
			return nil
		}
		if err := m.store.Save(ctx, sessionID, t); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return t, err
}

// History returns the messages of a session; an unknown session has none.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	t, err := m.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return []domain.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return t.Messages, nil
}

// Turn loads the transcript of sessionID (or starts a new one), hands a copy
// to fn and saves it when fn returns nil. On error nothing is written.
func (m *Manager) Turn(ctx context.Context, sessionID string, fn func(context.Context, *domain.Transcript) error) (*domain.Transcript, error) {
	var out *domain.Transcript
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		t, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}

		work := t.Clone()
		if err := fn(ctx, work); err != nil {
			return err
		}

		work.UpdatedAt = time.Now()
		if err := m.store.Save(ctx, sessionID, work); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = work
		return nil
	})
	return out, err
}

func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	t, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewTranscript(sessionID), nil
}

// Save persists the transcript.
func (m *Manager) Save(ctx context.Context, sessionID string, t *domain.Transcript) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, t)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// Clear drops the history of a session. Clearing an unknown session is not an error.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	err := m.Delete(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying transcript store.
func (m *Manager) Store() ports.TranscriptStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
