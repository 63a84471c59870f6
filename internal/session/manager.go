package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// Snapshots is the thin persistence boundary for session state. The storage
// medium is an external concern; a nil Snapshots means memory-only operation.
type Snapshots interface {
	Load(ctx context.Context, username string) ([]byte, bool, error)
	Save(ctx context.Context, username string, state []byte) error
	Delete(ctx context.Context, username string) error
}

// cacheSize bounds how many live sessions are held in memory at once.
const cacheSize = 512

// Manager hands out one *Session per username, keeping live sessions in a
// bounded LRU and round-tripping them through the snapshot store.
type Manager struct {
	cache *lru.Cache[string, *Session]
	store Snapshots

	// mu serializes cache misses so two requests for the same user cannot
	// both load and diverge.
	mu sync.Mutex
}

// NewManager creates a Manager. store may be nil for memory-only mode.
func NewManager(store Snapshots) (*Manager, error) {
	cache, err := lru.New[string, *Session](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Manager{cache: cache, store: store}, nil
}

// Get returns the session for username, loading a snapshot or creating a
// fresh session on first access.
func (m *Manager) Get(ctx context.Context, username string) (*Session, error) {
	if sess, ok := m.cache.Get(username); ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.cache.Get(username); ok {
		return sess, nil
	}

	sess := New(username)
	if m.store != nil {
		data, found, err := m.store.Load(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to load session snapshot: %w", err)
		}
		if found {
			if err := json.Unmarshal(data, sess); err != nil {
				// A corrupt snapshot should not lock the user out; start
				// fresh and let the next save replace it.
				log.Error().Err(err).Str("user", username).Msg("Discarding unreadable session snapshot")
				sess = New(username)
			}
			sess.Username = username
			sess.normalize()
		}
	}

	m.cache.Add(username, sess)
	return sess, nil
}

// Persist writes the session's current state through the snapshot store.
// A nil store makes this a no-op.
func (m *Manager) Persist(ctx context.Context, sess *Session) error {
	if m.store == nil {
		return nil
	}
	sess.mu.Lock()
	data, err := json.Marshal(sess)
	sess.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.store.Save(ctx, sess.Username, data); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// Delete removes the user's session and snapshot (account deletion).
func (m *Manager) Delete(ctx context.Context, username string) error {
	m.cache.Remove(username)
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, username); err != nil {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}
