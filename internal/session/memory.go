package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"easyfinance/internal/cache"
)

// Memory keeps sessions in an LRU cache. Sessions are lost on restart and
// the least recently used ones are evicted past maxEntries.
type Memory struct {
	tokens *cache.LRUCache[string]
}

func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	return &Memory{tokens: cache.NewLRUCache[string](maxEntries, ttl)}
}

func (m *Memory) Save(_ context.Context, token string) (string, error) {
	id := uuid.NewString()
	m.tokens.Set(id, token)
	return id, nil
}

func (m *Memory) Token(_ context.Context, id string) (string, error) {
	token, ok := m.tokens.Get(id)
	if !ok {
		return "", ErrNotFound
	}
	return token, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.tokens.Delete(id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) CleanExpired() int {
	return m.tokens.CleanExpired()
}

// Len returns the number of live entries, expired ones included until cleaned.
func (m *Memory) Len() int {
	return m.tokens.Size()
}
