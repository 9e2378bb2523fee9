package websocket

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Delivery is one serialized event addressed to a group
type Delivery struct {
	GroupID string
	Payload []byte
}

// Broker carries events from publishers to the hub. With the Redis broker
// every API instance's hub receives every insert.
type Broker interface {
	Publish(ctx context.Context, groupID string, payload []byte) error
	Subscribe(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

// LocalBroker delivers events inside one process
type LocalBroker struct {
	ch chan Delivery
}

// NewLocalBroker creates a LocalBroker with the given buffer size
func NewLocalBroker(buffer int) *LocalBroker {
	return &LocalBroker{ch: make(chan Delivery, buffer)}
}

// Publish implements Broker
func (b *LocalBroker) Publish(ctx context.Context, groupID string, payload []byte) error {
	select {
	case b.ch <- Delivery{GroupID: groupID, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements Broker; the local broker has a single consumer.
func (b *LocalBroker) Subscribe(context.Context) (<-chan Delivery, error) {
	return b.ch, nil
}

// Close implements Broker
func (b *LocalBroker) Close() error { return nil }

// ChannelPrefix prefixes the Redis pub/sub channel of each group
const ChannelPrefix = "chat:group:"

// RedisBroker fans events out through Redis pub/sub
type RedisBroker struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisBroker creates a RedisBroker
func NewRedisBroker(rdb *redis.Client, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{rdb: rdb, log: log.With().Str("component", "redis-broker").Logger()}
}

// Publish implements Broker
func (b *RedisBroker) Publish(ctx context.Context, groupID string, payload []byte) error {
	if err := b.rdb.Publish(ctx, ChannelPrefix+groupID, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe implements Broker. The returned channel closes when ctx ends.
func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	pubsub := b.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis psubscribe: %w", err)
	}

	out := make(chan Delivery, 256)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				groupID := strings.TrimPrefix(msg.Channel, ChannelPrefix)
				select {
				case out <- Delivery{GroupID: groupID, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	b.log.Info().Str("pattern", ChannelPrefix+"*").Msg("Subscribed to realtime channels")
	return out, nil
}

// Close implements Broker; the client itself is owned by the caller.
func (b *RedisBroker) Close() error { return nil }
