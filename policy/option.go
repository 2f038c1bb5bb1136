package policy

import (
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/viant/edt/service/event"
)

// Option configures the Domain.
type Option func(*Domain)

// WithConfig sets the domain configuration.
func WithConfig(config Config) Option {
	return func(d *Domain) {
		d.config = config
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Domain) {
		d.logger = logger
	}
}

// WithMetricsScope sets the tally scope the domain services report to.
func WithMetricsScope(scope tally.Scope) Option {
	return func(d *Domain) {
		d.scope = scope
	}
}

// WithTracing wraps every task execution in a span.
func WithTracing(enabled bool) Option {
	return func(d *Domain) {
		d.tracing = enabled
	}
}

// WithListener registers a handler for domain events. Handlers run on a
// listener goroutine, never on a worker.
func WithListener(handler func(*event.Event[any])) Option {
	return func(d *Domain) {
		d.handlers = append(d.handlers, handler)
	}
}
