package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notifystream"

// Collector is a prometheus.Collector for the push pipeline. It satisfies
// the Metrics interfaces of eventbus, registry and session.
type Collector struct {
	connections     prometheus.Gauge
	activeUsers     prometheus.Gauge
	rejections      *prometheus.CounterVec
	writeFailures   prometheus.Counter
	eventsPublished *prometheus.CounterVec
	listenerFails   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
}

// New returns a Collector with all series initialised to zero.
func New() *Collector {
	return &Collector{
		connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connections",
				Help:      "The number of open notification streams.",
			},
		),
		activeUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_users",
				Help:      "The number of users with at least one open stream.",
			},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_rejections_total",
				Help:      "Stream registrations refused because a limit was reached.",
			}, []string{"reason"},
		),
		writeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "write_failures_total",
				Help:      "Frames that could not be written to a stream.",
			},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Events published on the event bus.",
			}, []string{"kind"},
		),
		listenerFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listener_failures_total",
				Help:      "Event listeners that returned an error or panicked.",
			}, []string{"kind"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "How long a notification stream stayed open.",
				Buckets:   []float64{1, 10, 60, 300, 900, 3600, 4 * 3600},
			}, []string{"reason"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.connections.Describe(ch)
	c.activeUsers.Describe(ch)
	c.rejections.Describe(ch)
	c.writeFailures.Describe(ch)
	c.eventsPublished.Describe(ch)
	c.listenerFails.Describe(ch)
	c.sessionDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.connections.Collect(ch)
	c.activeUsers.Collect(ch)
	c.rejections.Collect(ch)
	c.writeFailures.Collect(ch)
	c.eventsPublished.Collect(ch)
	c.listenerFails.Collect(ch)
	c.sessionDuration.Collect(ch)
}

// ConnectionsChanged sets the connection and active user gauges.
func (c *Collector) ConnectionsChanged(connections, users int) {
	c.connections.Set(float64(connections))
	c.activeUsers.Set(float64(users))
}

// WriteFailed counts a frame that could not be written to a connection.
func (c *Collector) WriteFailed() {
	c.writeFailures.Inc()
}

// ConnectionRejected counts a refused stream by reason.
func (c *Collector) ConnectionRejected(reason string) {
	c.rejections.WithLabelValues(reason).Inc()
}

// EventPublished counts a bus event by kind.
func (c *Collector) EventPublished(kind string) {
	c.eventsPublished.WithLabelValues(kind).Inc()
}

// ListenerFailed counts a listener that returned an error or panicked.
func (c *Collector) ListenerFailed(kind string) {
	c.listenerFails.WithLabelValues(kind).Inc()
}

// SessionEnded observes the lifetime of a finished stream session.
func (c *Collector) SessionEnded(reason string, d time.Duration) {
	c.sessionDuration.WithLabelValues(reason).Observe(d.Seconds())
}

// Handler registers c together with the Go runtime and process collectors
// on a fresh registry and returns the exposition handler for it.
func Handler(c *Collector) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	for _, col := range []prometheus.Collector{
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), nil
}
