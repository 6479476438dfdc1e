package cache

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

type memoryEntry struct {
	user      *models.User
	expiresAt time.Time
}

// Memory is an in-process LRU bounded by size, each entry carrying its own expiry.
type Memory struct {
	entries    *lru.Cache[string, memoryEntry]
	defaultTTL time.Duration
	now        func() time.Time
}

type MemoryOption func(*Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(size int, defaultTTL time.Duration, opts ...MemoryOption) (*Memory, error) {
	if size <= 0 {
		return nil, errors.New("cache: size must be positive")
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	m := &Memory{entries: entries, defaultTTL: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Memory) Get(_ context.Context, username string) (*models.User, error) {
	key := userKey(username)
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.entries.Remove(key)
		return nil, nil
	}
	return snapshot(e.user), nil
}

func (m *Memory) Set(_ context.Context, username string, user *models.User, ttl time.Duration) error {
	if user == nil {
		return errors.New("cache: nil user")
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.entries.Add(userKey(username), memoryEntry{user: snapshot(user), expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *Memory) Delete(_ context.Context, username string) error {
	m.entries.Remove(userKey(username))
	return nil
}

func (m *Memory) Len() int { return m.entries.Len() }

func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}
