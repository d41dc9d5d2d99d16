package bomimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a preview ID has no stored session,
// typically because it expired or was already committed or cancelled.
var ErrSessionNotFound = errors.New("import session not found")

// SessionTTL bounds how long an uncommitted preview survives.
const SessionTTL = 2 * time.Hour

// SessionStore keeps import previews between the preview call and the
// commit or cancel that ends them.
type SessionStore interface {
	Save(ctx context.Context, preview *Preview) error
	Get(ctx context.Context, id string) (*Preview, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps previews in Redis so any API instance can serve
// the follow-up calls of a session.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "mes:import:" + id
}

func (s *RedisSessionStore) Save(ctx context.Context, preview *Preview) error {
	data, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("marshal import session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(preview.ID), data, SessionTTL).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Preview, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load import session: %w", err)
	}
	var preview Preview
	if err := json.Unmarshal(data, &preview); err != nil {
		return nil, fmt.Errorf("decode import session: %w", err)
	}
	return &preview, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// MemorySessionStore is an in-process store for tests and single-node
// deployments without Redis.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Preview
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Preview)}
}

func (s *MemorySessionStore) Save(ctx context.Context, preview *Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *preview
	s.sessions[preview.ID] = &copied
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*Preview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	preview, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *preview
	return &copied, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
