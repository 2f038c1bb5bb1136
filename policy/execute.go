package policy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/viant/edt/internal/clock"
	"github.com/viant/edt/model/task"
	"github.com/viant/edt/progress"
	"github.com/viant/edt/service/event"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/scheduler"
	"github.com/viant/edt/tracing"
)

// Take returns the next handle for worker.
func (d *Domain) Take(_ context.Context, worker int) (guid.GUID, bool) {
	return d.scheduler.Take(worker)
}

// Execute runs the object named by g on worker. Controllers handle control
// messages and hand user work to executors; every other worker runs tasks.
func (d *Domain) Execute(ctx context.Context, worker int, g guid.GUID) error {
	ctx = WithWorker(WithDomain(progress.WithTracker(ctx, d.progress), d), worker)
	defer unbind(ctx)
	if task.IsMessage(g) {
		return d.handleMessage(worker, g)
	}
	if d.scheduler.Role(worker) == scheduler.RoleCE {
		d.scheduler.Assign(g)
		return nil
	}
	t, err := guid.Lookup[*task.Task](d.provider, g)
	if err != nil {
		return errors.Wrap(err, "execute")
	}
	return d.run(ctx, worker, t)
}

func (d *Domain) handleMessage(worker int, g guid.GUID) error {
	msg, err := guid.Lookup[*task.Message](d.provider, g)
	if err != nil {
		return errors.Wrap(err, "message")
	}
	defer func() { _ = d.provider.Release(g) }()
	switch msg.Type {
	case task.PickMyWorkUp:
		for _, work := range d.scheduler.Unship(msg.From) {
			d.scheduler.Assign(work)
		}
		return nil
	}
	return errors.Errorf("worker %d: unsupported message %v", worker, msg.Type)
}

// run executes t, notifies its successors and reclaims its storage.
func (d *Domain) run(ctx context.Context, worker int, t *task.Task) (err error) {
	t.Begin()
	progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Running: 1})
	started := clock.Now()
	if d.tracing {
		var span *tracing.Span
		ctx, span = tracing.StartSpan(ctx, fmt.Sprintf("edt.task %s", t.Template.Name), "INTERNAL")
		span.WithAttributes(map[string]string{"worker": strconv.Itoa(worker), "guid": t.GUID.String()})
		defer func() { tracing.EndSpan(span, err) }()
	}

	result, err := d.invoke(ctx, t)
	if span, ok := tracing.SpanFromContext(ctx); ok && !result.IsNull() {
		span.WithAttributes(map[string]string{"result": result.String()})
	}
	for _, successor := range t.Reap(result) {
		if sErr := d.Satisfy(ctx, successor.Task, successor.Slot, result); sErr != nil {
			d.taskLogger(worker, t).WithError(sErr).Warn("failed to satisfy successor")
		}
	}
	d.freeParams(t.ParamAddr)
	_ = d.provider.Release(t.GUID)

	elapsed := clock.SinceMs(started)
	eventType := event.TaskReaped
	delta := progress.Delta{Running: -1, Completed: 1}
	if err != nil {
		eventType = event.TaskFailed
		delta = progress.Delta{Running: -1, Failed: 1}
	}
	progress.UpdateCtx(ctx, delta)
	d.publish(ctx, &event.Context{
		EventType:   eventType,
		Worker:      worker,
		GUID:        t.GUID,
		TimeTakenMs: int(elapsed),
	}, t.Template.Name, nil)
	return err
}

// invoke calls the task function, turning a panic into an error so one bad
// task does not take its worker down.
func (d *Domain) invoke(ctx context.Context, t *task.Task) (result guid.GUID, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("task %v panicked: %v", t.GUID, r)
		}
	}()
	return t.Template.Func(ctx, t.Params(), t.Deps())
}
