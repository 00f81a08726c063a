// Package metrics exports link and dispatcher counters to Prometheus.
//
// Cumulative counters are read from the transport on every scrape, so the
// link's slot goroutine never touches Prometheus. Negotiation outcomes and
// the saturation window are recorded by the application loop.
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	m.Watch(tr, session.Dispatcher())
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/protocol"
)

// Config configures the exported metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "multilink").
	Namespace string

	// Subsystem is the metrics subsystem (default: "link").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for negotiation duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the exported metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the negotiation histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "multilink",
		Subsystem: "link",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the exported metrics of one link endpoint.
type Metrics struct {
	config Config

	negotiation *prometheus.HistogramVec
	connected   prometheus.Gauge
	saturation  prometheus.Gauge
}

// New registers the recorded metrics. Call Watch to export counters.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		config: config,

		negotiation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "negotiation_duration_seconds",
			Help:        "Time from Connect or Listen to the end of negotiation",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"result"}),

		connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connected",
			Help:        "1 while the link is connected",
			ConstLabels: config.ConstLabels,
		}),

		saturation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "saturation_percent",
			Help:        "Share of data frames in the last stats window",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Watch registers a collector that reads src, and disp if not nil, on
// every scrape.
func (m *Metrics) Watch(src CounterSource, disp DispatchSource) {
	m.config.Registry.MustRegister(newCollector(m.config, src, disp))
}

// ObserveNegotiation records a finished negotiation. A nil err counts as
// success.
func (m *Metrics) ObserveNegotiation(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.negotiation.WithLabelValues(result).Observe(d.Seconds())
}

// SetConnected records the link state.
func (m *Metrics) SetConnected(up bool) {
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// ObserveStats records a stats window.
func (m *Metrics) ObserveStats(s link.Stats) {
	m.saturation.Set(float64(s.SaturationPercent))
}

// CounterSource reports cumulative link counters. *link.Transport
// implements it.
type CounterSource interface {
	Counters() link.Counters
}

// DispatchSource reports dispatcher counters. *protocol.Dispatcher
// implements it.
type DispatchSource interface {
	Stats() protocol.DispatchStats
}
