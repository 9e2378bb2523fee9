package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/rs/zerolog"
)

// Subscription is a live feed of insert events for one group. Events is
// closed when the connection ends or Close is called.
type Subscription interface {
	Events() <-chan dto.RealtimeEvent
	Close() error
}

type wsSubscription struct {
	conn      *websocket.Conn
	events    chan dto.RealtimeEvent
	done      chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

// Subscribe opens the realtime feed of groupID. Events are buffered so a
// caller may finish loading history before draining them.
func (c *Client) Subscribe(ctx context.Context, groupID string) (Subscription, error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path += groupPath(groupID, "realtime")

	header := http.Header{}
	if token := c.bearer(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("realtime subscribe: %v", err)}
		}
		return nil, fmt.Errorf("realtime subscribe %s: %w", redact(wsURL), err)
	}

	sub := &wsSubscription{
		conn:     conn,
		events:   make(chan dto.RealtimeEvent, 256),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		logger:   c.logger.With().Str("groupId", groupID).Logger(),
	}
	go sub.readLoop()
	return sub, nil
}

func redact(u url.URL) string {
	u.RawQuery = ""
	return u.String()
}

func (s *wsSubscription) Events() <-chan dto.RealtimeEvent {
	return s.events
}

// readLoop decodes frames until the connection fails. The server may batch
// several events in one frame separated by newlines.
func (s *wsSubscription) readLoop() {
	defer close(s.finished)
	defer close(s.events)

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug().Err(err).Msg("Realtime feed ended")
			}
			return
		}

		for _, line := range bytes.Split(frame, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var ev dto.RealtimeEvent
			if err := json.Unmarshal(line, &ev); err != nil {
				s.logger.Warn().Err(err).Msg("Dropping undecodable realtime frame")
				continue
			}
			if ev.Event != dto.RealtimeEventInsert || ev.New == nil {
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Close sends a close frame, tears down the connection and waits for the
// reader to exit. It is idempotent.
func (s *wsSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
		<-s.finished
	})
	return err
}
