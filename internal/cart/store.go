package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists cart documents by owner key. Load returns a fresh state for unknown owners.
type Store interface {
	Load(ctx context.Context, owner string) (State, error)
	Save(ctx context.Context, owner string, state State) error
	Delete(ctx context.Context, owner string) error
}

// MemoryStore keeps carts in process memory. Used by tests and single-process tools.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, owner string) (State, error) {
	m.mu.RLock()
	raw, ok := m.carts[owner]
	m.mu.RUnlock()
	if !ok {
		return NewState(), nil
	}
	return decode(raw)
}

func (m *MemoryStore) Save(_ context.Context, owner string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.carts[owner] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, owner string) error {
	m.mu.Lock()
	delete(m.carts, owner)
	m.mu.Unlock()
	return nil
}

type kvClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(owner string) string
}

// RedisStore keeps carts as JSON documents with a sliding TTL.
type RedisStore struct {
	client kvClient
	ttl    time.Duration
}

// NewRedisStore builds a redis-backed store. ttl <= 0 keeps carts forever.
func NewRedisStore(client kvClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, owner string) (State, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(owner))
	if errors.Is(err, redis.Nil) {
		return NewState(), nil
	}
	if err != nil {
		return State{}, err
	}
	return decode([]byte(raw))
}

func (r *RedisStore) Save(ctx context.Context, owner string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.client.CartKey(owner), string(raw), r.ttl)
}

func (r *RedisStore) Delete(ctx context.Context, owner string) error {
	return r.client.Del(ctx, r.client.CartKey(owner))
}

func decode(raw []byte) (State, error) {
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, err
	}
	return state.normalize(), nil
}
