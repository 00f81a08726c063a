package link

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Defaults for negotiation.
const (
	DefaultNegotiateTimeout = 20 * time.Second
	DefaultRetryDelay       = 50 * time.Millisecond
)

const tracerName = "github.com/multilink-dev/multilink/pkg/link"

// Option configures a Transport.
type Option func(*options)

type options struct {
	handshake  []byte
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

func defaultOptions() options {
	return options{
		handshake:  []byte(DefaultHandshake),
		timeout:    DefaultNegotiateTimeout,
		retryDelay: DefaultRetryDelay,
	}
}

// WithHandshake sets the version string exchanged during negotiation. A
// string whose length differs from MaxMessageSize makes every negotiation
// fail with ErrHandshakeLength.
func WithHandshake(s string) Option {
	return func(o *options) {
		o.handshake = []byte(s)
	}
}

// WithNegotiateTimeout sets the ceiling on a whole negotiation, retries
// included.
func WithNegotiateTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRetryDelay sets how long the host waits before retrying a failed
// handshake.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.retryDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer used for negotiation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

func (o *options) resolve() {
	if o.logger == nil {
		o.logger = slog.Default().With("component", "link")
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
}
