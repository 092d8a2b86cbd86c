// Package loop drives reconciliation. A timer goroutine enqueues tick
// tokens on a single-slot channel; the rendering goroutine, the only owner
// of the engine and every widget, consumes them. A trigger that lands while
// a tick is still running is dropped, never run concurrently.
package loop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/ui/controller"
)

// Reconciler converges the live UI on the latest snapshot.
type Reconciler interface {
	Tick(ctx context.Context) error
	Keys() []string
}

// SideChannel drains the pending service requests.
type SideChannel interface {
	Tick(ctx context.Context) error
}

// Snapshot is the read-only view of the live stack published after each
// tick for observers outside the rendering goroutine.
type Snapshot struct {
	Keys     []string  `json:"keys"`
	TickedAt time.Time `json:"ticked_at"`
}

// Options configures a Loop.
type Options struct {
	Reconciler  Reconciler
	SideChannel SideChannel
	Interval    time.Duration // default 50ms
	TickTimeout time.Duration // default 5s
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

// Loop owns the tick cadence.
type Loop struct {
	reconciler  Reconciler
	sideChannel SideChannel
	interval    time.Duration
	tickTimeout time.Duration
	metrics     *monitoring.Metrics
	log         *zap.Logger

	published atomic.Pointer[Snapshot]
}

// New creates a loop.
func New(opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loop{
		reconciler:  opts.Reconciler,
		sideChannel: opts.SideChannel,
		interval:    opts.Interval,
		tickTimeout: opts.TickTimeout,
		metrics:     opts.Metrics,
		log:         opts.Logger,
	}
}

// Run blocks, consuming ticks on the calling goroutine, which must be the
// one that owns the toolkit. It returns nil when ctx is cancelled, or the
// first fatal error (an unknown element kind in a snapshot). Transport
// failures are not fatal: the tick is logged, counted, and retried whole on
// the next trigger.
func (l *Loop) Run(ctx context.Context) error {
	ticks := make(chan struct{}, 1)
	go l.trigger(ctx, ticks)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if err := l.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Published returns the stack view from the most recent completed tick, or
// nil before the first one. Unlike everything else in the loop, this is
// safe to call from any goroutine.
func (l *Loop) Published() *Snapshot {
	return l.published.Load()
}

// trigger owns the timer. It never touches controller state: busy ticks
// are dropped here, on the far side of the channel.
func (l *Loop) trigger(ctx context.Context, ticks chan<- struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case ticks <- struct{}{}:
			default:
				l.metrics.IncTickDropped()
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context) error {
	tickCtx, cancel := context.WithTimeout(ctx, l.tickTimeout)
	defer cancel()

	if err := l.reconciler.Tick(tickCtx); err != nil {
		if errors.Is(err, controller.ErrUnknownElement) {
			// The server is speaking a newer dialect; rendering a broken
			// stack would violate every invariant the reconciler keeps.
			return err
		}
		l.metrics.IncTickError("reconcile")
		l.log.Warn("tick failed, retrying next trigger", zap.Error(err))
		return nil
	}

	l.published.Store(&Snapshot{Keys: l.reconciler.Keys(), TickedAt: time.Now()})

	if err := l.sideChannel.Tick(tickCtx); err != nil {
		l.metrics.IncTickError("services")
		l.log.Warn("service channel tick failed", zap.Error(err))
	}
	return nil
}
