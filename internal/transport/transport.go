// Package transport defines the client's view of the game server: the
// snapshot feed the reconciler polls, the action calls controllers make, and
// the service request side channel.
//
// Two implementations exist: httpapi (request/response polling) and stream
// (a websocket feed that caches the most recently pushed snapshot).
package transport

import (
	"context"
	"time"

	"github.com/soniferous/riftgate/client/internal/protocol"
)

// Client is the full transport surface. Implementations must keep every
// call bounded in time: they run on the rendering goroutine.
type Client interface {
	// UIStack returns the latest stack snapshot. A server with nothing to
	// show returns an empty stack, not an error.
	UIStack(ctx context.Context) (protocol.Stack, error)

	// Complete reports a confirmed selection on the screen with the given
	// key. Actions addressed to screens that no longer exist are the
	// server's problem; it ignores them.
	Complete(ctx context.Context, key, value string) error

	// Cancel reports that the screen with the given key was aborted.
	Cancel(ctx context.Context, key string) error

	// DequeueServiceRequests drains the pending side-channel batch.
	DequeueServiceRequests(ctx context.Context) (protocol.ServiceRequestBatch, error)

	// Close releases the underlying connection.
	Close() error
}

// Actions adapts a Client to the context-free action interface controllers
// are wired with, bounding each call with its own timeout.
type Actions struct {
	Client  Client
	Timeout time.Duration
}

// Complete implements controller.Actions.
func (a Actions) Complete(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()
	return a.Client.Complete(ctx, key, value)
}

// Cancel implements controller.Actions.
func (a Actions) Cancel(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()
	return a.Client.Cancel(ctx, key)
}
