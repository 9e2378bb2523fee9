package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients per chat group and fans broker
// deliveries out to them. Client membership changes only on the Run goroutine.
type Hub struct {
	// Registered clients organized by group ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	broker  Broker
	metrics *metrics.Metrics

	// Guards clients for readers outside Run
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(broker Broker, m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		broker:     broker,
		metrics:    m,
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run consumes broker deliveries and client (un)registrations until ctx is
// cancelled, then closes every client's send channel.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	deliveries, err := h.broker.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("hub subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d, ok := <-deliveries:
			if !ok {
				h.closeAll()
				return nil
			}
			h.broadcast(d)
		}
	}
}

// Register adds a client and returns once broadcasts reach it. It returns
// false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		<-c.registered
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish serializes event and hands it to the broker for fan-out
func (h *Hub) Publish(ctx context.Context, event *dto.RealtimeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime event: %w", err)
	}
	return h.broker.Publish(ctx, event.GroupID, data)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.groupID]; !ok {
		h.clients[client.groupID] = make(map[*Client]bool)
	}
	h.clients[client.groupID][client] = true
	h.metrics.ActiveSubscriptions.Inc()
	close(client.registered)

	h.logger.Info().
		Str("groupId", client.groupID).
		Str("userId", client.userID).
		Str("addr", client.addr).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked must be called with mu held
func (h *Hub) removeLocked(client *Client) {
	group, ok := h.clients[client.groupID]
	if !ok {
		return
	}
	if _, ok := group[client]; !ok {
		return
	}

	delete(group, client)
	if len(group) == 0 {
		delete(h.clients, client.groupID)
	}
	h.metrics.ActiveSubscriptions.Dec()
	close(client.send)

	h.logger.Info().
		Str("groupId", client.groupID).
		Str("userId", client.userID).
		Str("addr", client.addr).
		Msg("Client unregistered")
}

// broadcast sends a delivery to every client of its group. Clients whose
// buffer is full are dropped; their writePump then closes the socket.
func (h *Hub) broadcast(d Delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[d.GroupID]
	if !ok {
		h.logger.Debug().Str("groupId", d.GroupID).Msg("No clients in group for broadcast")
		return
	}

	delivered := 0
	for client := range clients {
		select {
		case client.send <- d.Payload:
			delivered++
		default:
			h.metrics.RealtimeEventsDropped.Inc()
			h.logger.Warn().Str("groupId", d.GroupID).Str("userId", client.userID).Msg("Dropping slow client")
			h.removeLocked(client)
		}
	}
	h.metrics.RealtimeEventsDelivered.Add(float64(delivered))

	h.logger.Debug().
		Str("groupId", d.GroupID).
		Int("clientCount", delivered).
		Msg("Event broadcast to group")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, group := range h.clients {
		for client := range group {
			h.removeLocked(client)
		}
	}
}

// ClientCount returns the number of connected clients for a group
func (h *Hub) ClientCount(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[groupID])
}
