// Package realtime is the client side of the gateway's change stream: one
// websocket carries row-change events in and commands out. Consumers get
// no resume tokens; after a reconnect signal they must re-fetch full state
// for any open conversation.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/model"
)

const (
	writeWait        = 10 * time.Second
	redialBackoffMin = time.Second
	redialBackoffMax = 30 * time.Second
)

// Options configure a subscription. An empty Conversation subscribes to
// the global stream (admin-wide awareness: every message and guest
// change); a non-empty one filters to a single guest's conversation.
type Options struct {
	GatewayURL   string // e.g. ws://localhost:8080
	Token        string
	Conversation string
}

// Client maintains the subscription. Events arrive on Events(); a closed
// and re-established transport is announced on Reconnects(). Close must be
// executed on every exit path or the subscription leaks and reused views
// see duplicate updates.
type Client struct {
	opts Options
	id   string
	log  *zap.SugaredLogger

	events     chan model.Event
	reconnects chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

func Dial(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Client, error) {
	c := &Client{
		opts:       opts,
		id:         uuid.NewString(),
		log:        log,
		events:     make(chan model.Event, 64),
		reconnects: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	go c.readLoop()
	return c, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.opts.GatewayURL)
	if err != nil {
		return nil, fmt.Errorf("gateway url: %w", err)
	}
	u.Path = "/ws"
	q := u.Query()
	if c.opts.Conversation != "" {
		q.Set("conversation", c.opts.Conversation)
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.opts.Token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Events is the stream of insert/update notifications for the subscribed
// filter.
func (c *Client) Events() <-chan model.Event {
	return c.events
}

// Reconnects fires after the transport dropped and was re-established.
// The consumer owns reconciliation: reload everything, do not assume
// replay.
func (c *Client) Reconnects() <-chan struct{} {
	return c.reconnects
}

// Publish sends one command to the gateway.
func (c *Client) Publish(ctx context.Context, cmd model.Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("subscription closed")
	}
	if c.conn == nil {
		return fmt.Errorf("subscription disconnected")
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			c.log.Warnw("subscription read failed, redialing", "sub", c.id, "err", err)
			if !c.redial() {
				return
			}
			// Tell the consumer to reload; events between the drop and
			// the redial are gone.
			select {
			case c.reconnects <- struct{}{}:
			default:
			}
			continue
		}

		var ev model.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warnw("bad event payload", "sub", c.id, "err", err)
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) redial() bool {
	backoff := redialBackoffMin
	for {
		if c.isClosed() {
			return false
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		conn, err := c.dial(ctx)
		cancel()
		if err == nil {
			c.mu.Lock()
			if c.closed {
				c.mu.Unlock()
				conn.Close()
				return false
			}
			c.conn = conn
			c.mu.Unlock()
			return true
		}

		c.log.Warnw("redial failed", "sub", c.id, "err", err)
		select {
		case <-time.After(backoff):
		case <-c.done:
			return false
		}
		backoff *= 2
		if backoff > redialBackoffMax {
			backoff = redialBackoffMax
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close tears the subscription down. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}
