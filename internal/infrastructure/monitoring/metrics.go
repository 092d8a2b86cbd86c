package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the client.
type Metrics struct {
	// Reconciliation loop
	TicksTotal   prometheus.Counter
	TicksDropped prometheus.Counter
	TickErrors   *prometheus.CounterVec
	TickDuration prometheus.Histogram

	// Controller lifecycle
	ControllersCreated   *prometheus.CounterVec
	ControllersDestroyed prometheus.Counter
	ControllersLive      prometheus.Gauge

	// Focus
	FocusChanges prometheus.Counter

	// Transport
	TransportCalls  *prometheus.CounterVec
	TransportErrors *prometheus.CounterVec

	// Side channel
	ServiceRequests *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates and registers all collectors on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests use this to get an
// isolated registry per case.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		startTime: time.Now(),

		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "client_ticks_total",
			Help: "Total number of reconciliation ticks run",
		}),
		TicksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "client_ticks_dropped_total",
			Help: "Timer triggers dropped because a tick was still running",
		}),
		TickErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_tick_errors_total",
			Help: "Ticks that failed, by stage",
		}, []string{"stage"}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "client_tick_duration_seconds",
			Help:    "Reconciliation tick duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),

		ControllersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_controllers_created_total",
			Help: "Controllers constructed, by element kind",
		}, []string{"kind"}),
		ControllersDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "client_controllers_destroyed_total",
			Help: "Controllers destroyed",
		}),
		ControllersLive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "client_controllers_live",
			Help: "Controllers currently on the live stack",
		}),

		FocusChanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "client_focus_changes_total",
			Help: "Focus transfers between screens (or to the root window)",
		}),

		TransportCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_transport_calls_total",
			Help: "Transport calls, by operation",
		}, []string{"op"}),
		TransportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_transport_errors_total",
			Help: "Failed transport calls, by operation",
		}, []string{"op"}),

		ServiceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_service_requests_total",
			Help: "Side-channel service requests dispatched, by kind",
		}, []string{"kind"}),
	}
}

// ObserveTick records one successful tick and the resulting live stack size.
func (m *Metrics) ObserveTick(d time.Duration, live int) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.TickDuration.Observe(d.Seconds())
	m.ControllersLive.Set(float64(live))
}

// IncTickError counts a failed tick for the given stage.
func (m *Metrics) IncTickError(stage string) {
	if m == nil {
		return
	}
	m.TickErrors.WithLabelValues(stage).Inc()
}

// IncTickDropped counts a timer trigger dropped while a tick was running.
func (m *Metrics) IncTickDropped() {
	if m == nil {
		return
	}
	m.TicksDropped.Inc()
}

// IncControllersCreated counts a constructed controller by element kind.
func (m *Metrics) IncControllersCreated(kind string) {
	if m == nil {
		return
	}
	m.ControllersCreated.WithLabelValues(kind).Inc()
}

// IncControllersDestroyed counts a destroyed controller.
func (m *Metrics) IncControllersDestroyed() {
	if m == nil {
		return
	}
	m.ControllersDestroyed.Inc()
}

// IncFocusChanges counts a focus transfer.
func (m *Metrics) IncFocusChanges() {
	if m == nil {
		return
	}
	m.FocusChanges.Inc()
}

// ObserveTransportCall counts a transport call and, when err is non-nil, an
// error for the same operation.
func (m *Metrics) ObserveTransportCall(op string, err error) {
	if m == nil {
		return
	}
	m.TransportCalls.WithLabelValues(op).Inc()
	if err != nil {
		m.TransportErrors.WithLabelValues(op).Inc()
	}
}

// IncServiceRequest counts a dispatched side-channel request by kind.
func (m *Metrics) IncServiceRequest(kind string) {
	if m == nil {
		return
	}
	m.ServiceRequests.WithLabelValues(kind).Inc()
}

// Uptime reports how long the collector has been alive.
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}
