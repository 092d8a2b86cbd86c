// Package services dispatches the side-channel service requests the server
// batches up for the client: speech output and shutdown. It shares the
// transport with the stack reconciler but has no reconciliation logic; the
// loop drains one batch per tick.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/protocol"
)

// Requests supplies the pending service request batch, clearing it server
// side.
type Requests interface {
	DequeueServiceRequests(ctx context.Context) (protocol.ServiceRequestBatch, error)
}

// Speaker routes text to the screen reader. Implementations decide how (and
// whether) the text is actually voiced.
type Speaker interface {
	Speak(text string, interrupt bool) error
}

// LogSpeaker is the fallback Speaker: it writes utterances to the log. Used
// when no screen reader integration is wired in.
type LogSpeaker struct {
	Logger *zap.Logger
}

// Speak implements Speaker.
func (s LogSpeaker) Speak(text string, interrupt bool) error {
	s.Logger.Info("speak", zap.String("text", text), zap.Bool("interrupt", interrupt))
	return nil
}

// Dispatcher drains and dispatches service request batches.
type Dispatcher struct {
	requests Requests
	speaker  Speaker
	shutdown func()
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewDispatcher creates a dispatcher. shutdown is invoked when the server
// requests a client exit; metrics may be nil.
func NewDispatcher(requests Requests, speaker Speaker, shutdown func(), metrics *monitoring.Metrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		requests: requests,
		speaker:  speaker,
		shutdown: shutdown,
		metrics:  metrics,
		log:      log,
	}
}

// Tick drains one batch and dispatches every request in order. Requests of
// an unknown kind are logged and skipped: unlike the UI stack, the side
// channel has no invariant that forces a version mismatch to be fatal.
func (d *Dispatcher) Tick(ctx context.Context) error {
	batch, err := d.requests.DequeueServiceRequests(ctx)
	if err != nil {
		return fmt.Errorf("dequeue service requests: %w", err)
	}

	for _, req := range batch.Requests {
		d.dispatch(req)
	}
	return nil
}

func (d *Dispatcher) dispatch(req protocol.ServiceRequest) {
	tag := req.Tag()
	d.metrics.IncServiceRequest(tag)

	switch tag {
	case protocol.TagSpeak:
		if err := d.speaker.Speak(req.Speak.Text, req.Speak.Interrupt); err != nil {
			d.log.Warn("speech output failed", zap.Error(err))
		}
	case protocol.TagShutdown:
		d.log.Info("server requested shutdown")
		d.shutdown()
	default:
		d.log.Warn("skipping service request of unknown kind", zap.String("kind", tag))
	}
}
