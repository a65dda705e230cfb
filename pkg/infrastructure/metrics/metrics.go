package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
)

const namespace = "campustrade"

type ServerMetrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	Events       *prometheus.CounterVec
	ExpiredTotal prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers the collectors with reg. A nil reg means the
// default registry.
func NewServerMetrics(reg *prometheus.Registry) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "dispatched_total",
		Help:      "Domain events handed to the notifier, by outcome.",
	}, []string{"type", "result"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "expired_total",
		Help:      "Pending orders cancelled by the stale order sweeper.",
	})

	m := &ServerMetrics{Requests: requests, LatencyMS: latency, Events: events, ExpiredTotal: expired}
	if reg == nil {
		prometheus.MustRegister(requests, latency, events, expired)
		m.gatherer = prometheus.DefaultGatherer
		return m
	}
	reg.MustRegister(requests, latency, events, expired)
	m.gatherer = reg
	return m
}

func (m *ServerMetrics) Observe(handler string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(handler, statusLabel(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(elapsed.Milliseconds()))
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// InstrumentDispatcher counts every dispatch attempt of next by event type.
// Cancellations raised by the sweeper also feed ExpiredTotal.
func (m *ServerMetrics) InstrumentDispatcher(next service.EventDispatcher) service.EventDispatcher {
	return &countingDispatcher{next: next, events: m.Events, expired: m.ExpiredTotal}
}

type countingDispatcher struct {
	next    service.EventDispatcher
	events  *prometheus.CounterVec
	expired prometheus.Counter
}

func (d *countingDispatcher) Dispatch(event service.Event) error {
	err := d.next.Dispatch(event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	d.events.WithLabelValues(event.Type(), result).Inc()
	if cancelled, ok := event.(model.OrderCancelled); ok && cancelled.Expired {
		d.expired.Inc()
	}
	return err
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
