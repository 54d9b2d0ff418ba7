package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/domain"
)

// MemoryStore is an in-process CartStore used in tests and single-node
// development. Carts are stored as encoded JSON so loads go through the
// same round-trip as the Redis store.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

var _ CartStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	const op = "store.memory.load"

	s.mu.RLock()
	raw, ok := s.carts[sessionID]
	s.mu.RUnlock()

	if !ok {
		return cart.New(), nil
	}

	c := cart.New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt cart")
	}
	return c, nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	const op = "store.memory.save"

	raw, err := json.Marshal(c)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode cart")
	}

	s.mu.Lock()
	s.carts[sessionID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
