// Package httpapi implements the transport over the server's HTTP API:
// the reconciler polls GET /api/ui/stack, actions go to POST
// /api/ui/actions, and the side channel drains via POST
// /api/services/dequeue.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/infrastructure/resilience"
	"github.com/soniferous/riftgate/client/internal/protocol"
)

const (
	stackPath   = "/api/ui/stack"
	actionsPath = "/api/ui/actions"
	dequeuePath = "/api/services/dequeue"
)

// Options configures the HTTP transport.
type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:7777".
	BaseURL string

	// Timeout bounds each request. Default 5s.
	Timeout time.Duration

	// RequestsPerSecond caps the outbound call rate. Default 100.
	RequestsPerSecond int

	// Metrics may be nil.
	Metrics *monitoring.Metrics
}

// Client is the HTTP transport. Safe for concurrent use, though the client
// only ever drives it from the rendering goroutine.
type Client struct {
	// polls retries transparently; actions does not, since replaying a
	// selection is worse than losing it.
	polls   *resty.Client
	actions *resty.Client

	breaker *resilience.Breaker
	limiter *rate.Limiter
	metrics *monitoring.Metrics
	session string
}

// New creates an HTTP transport client. Every request carries a session ID
// so the server can correlate one client's polls and actions.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 100
	}

	session := uuid.New().String()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 50 * time.Millisecond
	retryClient.RetryWaitMax = 500 * time.Millisecond
	retryClient.Logger = nil

	newResty := func(transport http.RoundTripper) *resty.Client {
		c := resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("X-Riftgate-Session", session)
		if transport != nil {
			c.SetTransport(transport)
		}
		return c
	}

	return &Client{
		polls:   newResty(retryClient.StandardClient().Transport),
		actions: newResty(nil),
		breaker: resilience.New(resilience.Settings{
			Threshold: 5,
			Cooldown:  2 * time.Second,
		}),
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
		metrics: opts.Metrics,
		session: session,
	}
}

// UIStack implements transport.Client.
func (c *Client) UIStack(ctx context.Context) (protocol.Stack, error) {
	var stack protocol.Stack
	err := c.call(ctx, "ui_stack", func() error {
		resp, err := c.polls.R().SetContext(ctx).Get(stackPath)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("get ui stack: server returned %s", resp.Status())
		}
		stack, err = protocol.DecodeStack(resp.Body())
		return err
	})
	if err != nil {
		return protocol.Stack{}, err
	}
	return stack, nil
}

// Complete implements transport.Client.
func (c *Client) Complete(ctx context.Context, key, value string) error {
	return c.sendAction(ctx, protocol.Action{
		Target: key,
		Kind:   protocol.ActionComplete,
		Value:  value,
	})
}

// Cancel implements transport.Client.
func (c *Client) Cancel(ctx context.Context, key string) error {
	return c.sendAction(ctx, protocol.Action{
		Target: key,
		Kind:   protocol.ActionCancel,
	})
}

// DequeueServiceRequests implements transport.Client.
func (c *Client) DequeueServiceRequests(ctx context.Context) (protocol.ServiceRequestBatch, error) {
	var batch protocol.ServiceRequestBatch
	err := c.call(ctx, "dequeue_services", func() error {
		resp, err := c.polls.R().SetContext(ctx).Post(dequeuePath)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("dequeue service requests: server returned %s", resp.Status())
		}
		batch, err = protocol.DecodeServiceRequests(resp.Body())
		return err
	})
	if err != nil {
		return protocol.ServiceRequestBatch{}, err
	}
	return batch, nil
}

// Close implements transport.Client.
func (c *Client) Close() error {
	c.polls.GetClient().CloseIdleConnections()
	c.actions.GetClient().CloseIdleConnections()
	return nil
}

// Session reports the session ID sent with every request.
func (c *Client) Session() string { return c.session }

func (c *Client) sendAction(ctx context.Context, action protocol.Action) error {
	body, err := protocol.EncodeAction(action)
	if err != nil {
		return err
	}
	return c.call(ctx, "action_"+action.Kind, func() error {
		resp, err := c.actions.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			Post(actionsPath)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("send %s action: server returned %s", action.Kind, resp.Status())
		}
		return nil
	})
}

func (c *Client) call(ctx context.Context, op string, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	err := c.breaker.Do(fn)
	c.metrics.ObserveTransportCall(op, err)
	return err
}
