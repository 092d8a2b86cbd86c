// Package stream implements the transport over the server's websocket feed.
// The server pushes stack snapshots and service requests as they change; the
// client caches the most recent snapshot so the reconciler's poll is a local
// read, and sends user actions as frames on the same connection.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/protocol"
)

// frame is one server-to-client message. A frame carries a fresh snapshot,
// a batch of service requests, or both.
type frame struct {
	Stack    *protocol.Stack           `json:"stack,omitempty"`
	Services []protocol.ServiceRequest `json:"services,omitempty"`
}

// outbound is one client-to-server message.
type outbound struct {
	Action *protocol.Action `json:"action,omitempty"`
}

// Options configures the stream transport.
type Options struct {
	// URL is the websocket endpoint, e.g. "ws://localhost:7777/api/ui/stream".
	URL string

	// WriteTimeout bounds each outbound frame. Default 5s.
	WriteTimeout time.Duration

	// Metrics may be nil.
	Metrics *monitoring.Metrics

	Logger *zap.Logger
}

// Client is the websocket transport.
type Client struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	metrics      *monitoring.Metrics
	log          *zap.Logger
	session      string

	mu      sync.Mutex
	latest  protocol.Stack
	pending []protocol.ServiceRequest
	readErr error

	writeMu sync.Mutex

	done chan struct{}
}

// Dial connects to the feed and starts the reader. The returned client
// serves an empty stack until the server pushes the first snapshot.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	session := uuid.New().String()
	header := http.Header{"X-Riftgate-Session": []string{session}}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial ui stream: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("dial ui stream: %w", err)
	}

	c := &Client{
		conn:         conn,
		writeTimeout: opts.WriteTimeout,
		metrics:      opts.Metrics,
		log:          opts.Logger,
		session:      session,
		done:         make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// UIStack implements transport.Client: it returns the most recently pushed
// snapshot without touching the network.
func (c *Client) UIStack(ctx context.Context) (protocol.Stack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return protocol.Stack{}, fmt.Errorf("ui stream lost: %w", c.readErr)
	}
	c.metrics.ObserveTransportCall("ui_stack", nil)
	return c.latest, nil
}

// DequeueServiceRequests implements transport.Client, draining the requests
// buffered since the last call.
func (c *Client) DequeueServiceRequests(ctx context.Context) (protocol.ServiceRequestBatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return protocol.ServiceRequestBatch{}, fmt.Errorf("ui stream lost: %w", c.readErr)
	}
	batch := protocol.ServiceRequestBatch{Requests: c.pending}
	c.pending = nil
	c.metrics.ObserveTransportCall("dequeue_services", nil)
	return batch, nil
}

// Complete implements transport.Client.
func (c *Client) Complete(ctx context.Context, key, value string) error {
	return c.send(protocol.Action{Target: key, Kind: protocol.ActionComplete, Value: value})
}

// Cancel implements transport.Client.
func (c *Client) Cancel(ctx context.Context, key string) error {
	return c.send(protocol.Action{Target: key, Kind: protocol.ActionCancel})
}

// Close implements transport.Client.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// Session reports the session ID presented at dial time.
func (c *Client) Session() string { return c.session }

func (c *Client) send(action protocol.Action) error {
	data, err := sonic.Marshal(outbound{Action: &action})
	if err != nil {
		return fmt.Errorf("encode action frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	op := "action_" + action.Kind
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		c.metrics.ObserveTransportCall(op, err)
		return err
	}
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.metrics.ObserveTransportCall(op, err)
	if err != nil {
		return fmt.Errorf("send %s action: %w", action.Kind, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}

		var f frame
		if err := sonic.Unmarshal(data, &f); err != nil {
			// A malformed frame is a server bug; keep the feed alive and
			// surface it in the log.
			c.log.Warn("dropping malformed stream frame", zap.Error(err))
			continue
		}

		c.mu.Lock()
		if f.Stack != nil {
			c.latest = *f.Stack
		}
		c.pending = append(c.pending, f.Services...)
		c.mu.Unlock()
	}
}
