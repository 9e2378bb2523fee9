// Package presence tracks which users hold an open realtime connection in a
// workspace. A user with several connections stays online until the last one
// closes.
package presence

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store records connections and answers who is online
type Store interface {
	Connect(ctx context.Context, workspaceID, userID string) error
	Disconnect(ctx context.Context, workspaceID, userID string) error
	Online(ctx context.Context, workspaceID string) (map[string]bool, error)
}

// MemoryStore keeps connection counts in process memory
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]map[string]int)}
}

// Connect implements Store
func (s *MemoryStore) Connect(_ context.Context, workspaceID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.counts[workspaceID]
	if !ok {
		users = make(map[string]int)
		s.counts[workspaceID] = users
	}
	users[userID]++
	return nil
}

// Disconnect implements Store
func (s *MemoryStore) Disconnect(_ context.Context, workspaceID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.counts[workspaceID]
	if !ok {
		return nil
	}
	if users[userID] <= 1 {
		delete(users, userID)
	} else {
		users[userID]--
	}
	if len(users) == 0 {
		delete(s.counts, workspaceID)
	}
	return nil
}

// Online implements Store
func (s *MemoryStore) Online(_ context.Context, workspaceID string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	online := make(map[string]bool, len(s.counts[workspaceID]))
	for id := range s.counts[workspaceID] {
		online[id] = true
	}
	return online, nil
}

// RedisStore keeps connection counts in a hash per workspace so every API
// instance sees the same presence.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Key returns the hash holding a workspace's connection counts
func Key(workspaceID string) string {
	return "presence:workspace:" + workspaceID
}

// Connect implements Store
func (s *RedisStore) Connect(ctx context.Context, workspaceID, userID string) error {
	if err := s.rdb.HIncrBy(ctx, Key(workspaceID), userID, 1).Err(); err != nil {
		return fmt.Errorf("presence connect: %w", err)
	}
	return nil
}

// disconnectScript decrements and drops an exhausted count in one step, so
// a Connect from another instance cannot land in between.
var disconnectScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if n <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
end
return n
`)

// Disconnect implements Store
func (s *RedisStore) Disconnect(ctx context.Context, workspaceID, userID string) error {
	if err := disconnectScript.Run(ctx, s.rdb, []string{Key(workspaceID)}, userID).Err(); err != nil {
		return fmt.Errorf("presence disconnect: %w", err)
	}
	return nil
}

// Online implements Store
func (s *RedisStore) Online(ctx context.Context, workspaceID string) (map[string]bool, error) {
	counts, err := s.rdb.HGetAll(ctx, Key(workspaceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence online: %w", err)
	}

	online := make(map[string]bool, len(counts))
	for id, raw := range counts {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			online[id] = true
		}
	}
	return online, nil
}
