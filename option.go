package edt

import (
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/edt/service/event"
)

// Option configures the Runtime.
type Option func(r *Runtime)

// WithConfig sets the runtime configuration.
func WithConfig(config *Config) Option {
	return func(r *Runtime) {
		r.config = config
	}
}

// WithLogger overrides the logger built from Config.Log.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMetricsScope sets the tally scope runtime metrics are reported to.
func WithMetricsScope(scope tally.Scope) Option {
	return func(r *Runtime) {
		r.scope = scope
	}
}

// WithListener registers a handler for runtime events.
func WithListener(handler func(*event.Event[any])) Option {
	return func(r *Runtime) {
		r.listeners = append(r.listeners, handler)
	}
}

// WithSpanExporter sends task spans to exporter. It turns tracing on
// regardless of Config.Tracing.Enabled.
func WithSpanExporter(exporter sdktrace.SpanExporter) Option {
	return func(r *Runtime) {
		r.exporter = exporter
	}
}
