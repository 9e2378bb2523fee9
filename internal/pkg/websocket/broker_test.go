package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficina/chat/internal/pkg/metrics"
)

func newRedisBroker(t *testing.T, mr *miniredis.Miniredis) *RedisBroker {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBroker(rdb, zerolog.Nop())
}

func TestRedisBrokerDeliversByGroup(t *testing.T) {
	mr := miniredis.RunT(t)
	publisher := newRedisBroker(t, mr)
	subscriber := newRedisBroker(t, mr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deliveries, err := subscriber.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), "g-42", []byte(`{"event":"INSERT"}`)))

	select {
	case d := <-deliveries:
		assert.Equal(t, "g-42", d.GroupID)
		assert.JSONEq(t, `{"event":"INSERT"}`, string(d.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery from redis")
	}
}

func TestRedisBrokerClosesOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	b := newRedisBroker(t, mr)

	ctx, cancel := context.WithCancel(context.Background())
	deliveries, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-deliveries:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("deliveries not closed after cancel")
	}
}

func TestHubsFanOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)

	run := func(h *Hub) {
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- h.Run(ctx) }()
		t.Cleanup(func() {
			cancel()
			require.NoError(t, <-errCh)
		})
	}
	a := NewHub(newRedisBroker(t, mr), metrics.NewNop(), zerolog.Nop())
	b := NewHub(newRedisBroker(t, mr), metrics.NewNop(), zerolog.Nop())
	run(a)
	run(b)

	// Run subscribes before it serves registrations.
	onB := newClient(b, nil, "u1", "g1", "ws", zerolog.Nop())
	require.True(t, b.Register(onB))

	require.NoError(t, a.Publish(context.Background(), insertEvent("g1", "m7")))
	ev := receive(t, onB)
	assert.Equal(t, "m7", ev.New.ID)
}
