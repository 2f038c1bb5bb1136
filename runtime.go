package edt

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/edt/model/task"
	"github.com/viant/edt/policy"
	"github.com/viant/edt/progress"
	"github.com/viant/edt/service/event"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/tracing"
)

// Runtime is the facade over one policy domain.
type Runtime struct {
	config    *Config
	logger    logrus.FieldLogger
	scope     tally.Scope
	listeners []func(*event.Event[any])
	exporter  sdktrace.SpanExporter
	domain    *policy.Domain
}

// New creates a runtime. Nothing runs until Start.
func New(options ...Option) (*Runtime, error) {
	r := &Runtime{}
	for _, opt := range options {
		opt(r)
	}
	if r.config == nil {
		r.config = DefaultConfig()
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	if r.logger == nil {
		logger, err := r.config.NewLogger()
		if err != nil {
			return nil, err
		}
		r.logger = logger
	}
	domainOptions := []policy.Option{
		policy.WithConfig(r.config.Domain),
		policy.WithLogger(r.logger),
		policy.WithMetricsScope(r.scope),
		policy.WithTracing(r.config.Tracing.Enabled || r.exporter != nil),
	}
	for _, listener := range r.listeners {
		domainOptions = append(domainOptions, policy.WithListener(listener))
	}
	r.domain = policy.New(domainOptions...)
	return r, nil
}

// Domain returns the policy domain.
func (r *Runtime) Domain() *policy.Domain {
	return r.domain
}

// Config returns the runtime configuration.
func (r *Runtime) Config() *Config {
	return r.config
}

// Start initialises tracing and brings the domain up to USER_OK.
func (r *Runtime) Start(ctx context.Context) error {
	tc := r.config.Tracing
	switch {
	case r.exporter != nil:
		if err := tracing.InitWithExporter(tc.Service, tc.Version, r.exporter); err != nil {
			return errors.Wrap(err, "failed to init tracing")
		}
	case tc.Enabled:
		if err := tracing.Init(tc.Service, tc.Version, tc.OutputFile); err != nil {
			return errors.Wrap(err, "failed to init tracing")
		}
	}
	return r.domain.BringUp(ctx)
}

// Shutdown tears the domain down. Running tasks finish; queued tasks are
// dropped, so call Wait first to drain them.
func (r *Runtime) Shutdown(ctx context.Context) error {
	return r.domain.TearDown(ctx)
}

// Wait blocks until no task is pending or running, the timeout elapses or
// ctx is done.
func (r *Runtime) Wait(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if r.domain.Progress().Quiescent() {
			return nil
		}
		if time.Now().After(deadline) {
			s := r.domain.Progress().Snapshot()
			return errors.Errorf("timeout waiting for tasks: %d pending, %d running", s.PendingTasks, s.RunningTasks)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// Progress returns a snapshot of the task counters.
func (r *Runtime) Progress() progress.Progress {
	return r.domain.Progress().Snapshot()
}

// CreateTemplate registers a task template.
func (r *Runtime) CreateTemplate(name string, fn task.Func, paramc, depc int) (guid.GUID, error) {
	return r.domain.CreateTemplate(name, fn, paramc, depc)
}

// CreateTask instantiates a template.
func (r *Runtime) CreateTask(ctx context.Context, template guid.GUID, params ...uint64) (guid.GUID, error) {
	return r.domain.CreateTask(ctx, template, params...)
}

// AddDependence wires source into slot of destination.
func (r *Runtime) AddDependence(ctx context.Context, source, destination guid.GUID, slot int, mode task.Mode) error {
	return r.domain.AddDependence(ctx, source, destination, slot, mode)
}

// Satisfy resolves slot of destination with g.
func (r *Runtime) Satisfy(ctx context.Context, destination guid.GUID, slot int, g guid.GUID) error {
	return r.domain.Satisfy(ctx, destination, slot, g)
}

// CreateDataBlock allocates a data block.
func (r *Runtime) CreateDataBlock(size uint64) (guid.GUID, []byte, error) {
	return r.domain.CreateDataBlock(size)
}

// DestroyDataBlock frees a data block.
func (r *Runtime) DestroyDataBlock(g guid.GUID) error {
	return r.domain.DestroyDataBlock(g)
}
