// Package resilience provides the circuit breaker the transports wrap their
// server calls in. When the server stops answering, the breaker fails ticks
// fast instead of letting every 50ms poll wait out a timeout and stall the
// rendering loop.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values get sensible defaults.
type Settings struct {
	// Threshold is the number of consecutive failures that opens the
	// breaker. Default 5.
	Threshold int

	// Cooldown is how long the breaker stays open before letting a probe
	// call through. Default 2s, which at the client's ~50ms tick cadence
	// skips roughly forty polls per outage window.
	Cooldown time.Duration

	// OnStateChange, when set, is called on every transition.
	OnStateChange func(from, to State)
}

// Breaker is a minimal three-state circuit breaker. Safe for concurrent use.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a breaker.
func New(settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 2 * time.Second
	}
	return &Breaker{settings: settings}
}

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current(time.Now())
}

// Do runs fn unless the breaker is open. A rejected call returns ErrOpen
// without invoking fn.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.current(time.Now()) {
	case StateOpen:
		return false
	default:
		return true
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.current(now)

	if success {
		b.failures = 0
		if state == StateHalfOpen {
			b.transition(state, StateClosed)
		}
		return
	}

	if state == StateHalfOpen {
		b.openedAt = now
		b.transition(state, StateOpen)
		return
	}

	b.failures++
	if b.failures >= b.settings.Threshold {
		b.openedAt = now
		b.transition(state, StateOpen)
	}
}

// current resolves the open → half-open transition lazily. Callers hold mu.
func (b *Breaker) current(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateOpen, StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(from, to State) {
	if from == to {
		return
	}
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(from, to)
	}
}
