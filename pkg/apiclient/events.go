package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// EventStream is an open subscription to the server's per-user event feed.
type EventStream struct {
	conn   *websocket.Conn
	events chan Event
	errc   chan error
	done   chan struct{}
}

// Events returns a channel of decoded events. It is closed when the stream
// ends; Err then reports why.
func (s *EventStream) Events() <-chan Event {
	return s.events
}

// Err blocks until the stream has ended and returns the terminating error.
func (s *EventStream) Err() error {
	return <-s.errc
}

func (s *EventStream) Close() error {
	return s.conn.Close()
}

// SubscribeEvents opens the websocket event feed for the current token.
// The stream is closed when ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context) (*EventStream, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrUnauthorized
	}

	u, err := url.Parse(c.config.BaseURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to build events url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: c.config.Timeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			c.fireUnauthorized()
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	s := &EventStream{
		conn:   conn,
		events: make(chan Event, 16),
		errc:   make(chan error, 1),
		done:   make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-s.done:
		}
	}()

	go func() {
		defer close(s.done)
		defer close(s.events)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					s.errc <- ctx.Err()
				} else {
					s.errc <- fmt.Errorf("%w: %v", ErrNetwork, err)
				}
				return
			}
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				c.log.Warn("Dropping malformed event", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				s.errc <- ctx.Err()
				return
			}
		}
	}()

	return s, nil
}
