package event

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for bus activity. A nil *Metrics is a no-op.
type Metrics struct {
	dispatched      *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

// NewMetrics registers the bus collectors with reg. Collectors already
// registered under the same names are reused so several buses can share a registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lootdraw",
			Subsystem: "event",
			Name:      "dispatched_total",
			Help:      "Events dispatched, by kind and outcome.",
		},
		[]string{"kind", "status"},
	)
	handlerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lootdraw",
			Subsystem: "event",
			Name:      "handler_duration_seconds",
			Help:      "Time spent in a single event handler.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	if err := reg.Register(dispatched); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		dispatched = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(handlerDuration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		handlerDuration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	return &Metrics{dispatched: dispatched, handlerDuration: handlerDuration}, nil
}

func (m *Metrics) observeDispatch(kind Kind, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.dispatched.WithLabelValues(string(kind), status).Inc()
}

func (m *Metrics) observeHandler(kind Kind, d time.Duration) {
	if m == nil {
		return
	}
	m.handlerDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}
