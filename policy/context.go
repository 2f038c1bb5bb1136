package policy

import (
	"context"

	"go.uber.org/atomic"
)

type domainKeyT struct{}

var domainKey domainKeyT

// WithDomain embeds d in ctx. Task functions receive a context carrying the
// domain that runs them.
func WithDomain(ctx context.Context, d *Domain) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, domainKey, d)
}

// FromContext extracts the domain from ctx, or nil.
func FromContext(ctx context.Context) *Domain {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(domainKey).(*Domain); ok {
		return v
	}
	return nil
}

type workerKeyT struct{}

var workerKey workerKeyT

// binding ties a context to the worker goroutine executing a task. It is
// released once the task returns.
type binding struct {
	worker int
	active atomic.Bool
}

// WithWorker records the id of the worker running ctx.
func WithWorker(ctx context.Context, worker int) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &binding{worker: worker}
	b.active.Store(true)
	return context.WithValue(ctx, workerKey, b)
}

// WorkerFromContext returns the id of the worker running ctx. It reports
// false once the task that received ctx has returned.
func WorkerFromContext(ctx context.Context) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	b, ok := ctx.Value(workerKey).(*binding)
	if !ok || b == nil || !b.active.Load() {
		return 0, false
	}
	return b.worker, true
}

// Detach strips the worker binding from ctx, keeping the domain. Goroutines
// started by a task must use a detached context: ready tasks they produce go
// through the shared submission path instead of the worker's own pile.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, workerKey, (*binding)(nil))
}

// unbind releases the worker binding of ctx.
func unbind(ctx context.Context) {
	if b, ok := ctx.Value(workerKey).(*binding); ok && b != nil {
		b.active.Store(false)
	}
}
