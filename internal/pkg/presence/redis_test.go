package presence

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisStoreCountsConnections(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := NewRedisStore(newRedisClient(t, mr))

	require.NoError(t, s.Connect(ctx, "ws", "ada"))
	require.NoError(t, s.Connect(ctx, "ws", "ada"))
	require.NoError(t, s.Connect(ctx, "ws", "bob"))

	require.NoError(t, s.Disconnect(ctx, "ws", "ada"))
	online, err := s.Online(ctx, "ws")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"ada": true, "bob": true}, online)

	require.NoError(t, s.Disconnect(ctx, "ws", "ada"))
	require.NoError(t, s.Disconnect(ctx, "ws", "bob"))
	online, err = s.Online(ctx, "ws")
	require.NoError(t, err)
	assert.Empty(t, online)
	assert.False(t, mr.Exists(Key("ws")))

	// A stray disconnect leaves no negative count behind.
	require.NoError(t, s.Disconnect(ctx, "ws", "ghost"))
	assert.False(t, mr.Exists(Key("ws")))
}

// interleaveHook runs fn once before the second command a client sends while
// armed, emulating another instance acting between two round trips.
type interleaveHook struct {
	mu    sync.Mutex
	armed bool
	seen  int
	fn    func()
	fired bool
}

func (h *interleaveHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *interleaveHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		run := false
		if h.armed {
			h.seen++
			run = h.seen == 2 && !h.fired
			h.fired = h.fired || run
		}
		h.mu.Unlock()
		if run {
			h.fn()
		}
		return next(ctx, cmd)
	}
}

func (h *interleaveHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStoreReconnectDuringDisconnectStaysOnline(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	oldInstance := newRedisClient(t, mr)
	newInstance := NewRedisStore(newRedisClient(t, mr))

	hook := &interleaveHook{fn: func() {
		require.NoError(t, newInstance.Connect(ctx, "ws", "u1"))
	}}
	oldInstance.AddHook(hook)
	s := NewRedisStore(oldInstance)

	require.NoError(t, s.Connect(ctx, "ws", "u1"))

	hook.mu.Lock()
	hook.armed = true
	hook.mu.Unlock()
	require.NoError(t, s.Disconnect(ctx, "ws", "u1"))

	// The channel switch opens the new socket either way.
	if !hook.fired {
		require.NoError(t, newInstance.Connect(ctx, "ws", "u1"))
	}

	online, err := s.Online(ctx, "ws")
	require.NoError(t, err)
	assert.True(t, online["u1"])
}

func TestRedisStoreDisconnectIsOneCommand(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := newRedisClient(t, mr)
	s := NewRedisStore(rdb)
	require.NoError(t, s.Connect(ctx, "ws", "u1"))

	var cmds []string
	rdb.AddHook(&recordHook{cmds: &cmds})
	require.NoError(t, s.Disconnect(ctx, "ws", "u1"))

	for _, name := range cmds {
		assert.NotEqual(t, "hdel", strings.ToLower(name))
		assert.NotEqual(t, "hincrby", strings.ToLower(name))
	}
}

type recordHook struct {
	cmds *[]string
}

func (h *recordHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *recordHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		*h.cmds = append(*h.cmds, cmd.Name())
		return next(ctx, cmd)
	}
}

func (h *recordHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
