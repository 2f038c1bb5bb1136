package policy

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/atomic"

	"github.com/viant/edt/internal/idgen"
	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/progress"
	"github.com/viant/edt/service/allocator"
	"github.com/viant/edt/service/allocator/null"
	"github.com/viant/edt/service/allocator/simple"
	"github.com/viant/edt/service/event"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/memory"
	"github.com/viant/edt/service/rangetracker"
	"github.com/viant/edt/service/scheduler"
	"github.com/viant/edt/service/worker"
)

var (
	// ErrTransition is returned for a run-level switch that is out of order.
	ErrTransition = errors.New("policy: invalid run-level transition")
	// ErrNotRunning is returned by the task API outside USER_OK.
	ErrNotRunning = errors.New("policy: domain is not at USER_OK")
)

// noLevel is the level of a domain that has not parsed its config yet.
const noLevel = -1

// Domain owns every runtime service of one runtime instance.
type Domain struct {
	ID       string
	config   Config
	logger   logrus.FieldLogger
	scope    tally.Scope
	tracing  bool
	handlers []func(*event.Event[any])

	mu    sync.Mutex
	level atomic.Int32

	provider  *guid.Provider
	target    *memory.Target
	allocator allocator.Allocator
	scheduler scheduler.Scheduler
	workers   *worker.Service
	progress  *progress.Progress
	publisher *event.Publisher[any]
	listener  *event.Listener[any]
}

// New creates a domain. Nothing is allocated until BringUp.
func New(options ...Option) *Domain {
	d := &Domain{ID: idgen.New(), config: DefaultConfig()}
	for _, opt := range options {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}
	d.logger = d.logger.WithField("domain", d.ID)
	if d.scope == nil {
		d.scope = tally.NoopScope
	}
	d.scope = d.scope.Tagged(map[string]string{"domain": d.ID})
	d.progress = progress.New(d.ID)
	d.level.Store(noLevel)
	return d
}

// Config returns the domain configuration.
func (d *Domain) Config() Config {
	return d.config
}

// Level returns the current run-level; before CONFIG_PARSE it is not Valid.
func (d *Domain) Level() runlevel.Level {
	return runlevel.Level(d.level.Load())
}

// Progress returns the task counters.
func (d *Domain) Progress() *progress.Progress {
	return d.progress
}

// BringUp switches through every run-level up to USER_OK.
func (d *Domain) BringUp(ctx context.Context) error {
	for _, level := range runlevel.Levels {
		if int32(level) <= d.level.Load() {
			continue
		}
		if err := d.SwitchRunlevel(ctx, level, runlevel.BringUp); err != nil {
			return err
		}
	}
	return nil
}

// TearDown switches down through every run-level. Workers finish the tasks
// they are running; queued work is dropped.
func (d *Domain) TearDown(ctx context.Context) error {
	for i := len(runlevel.Levels) - 1; i >= 0; i-- {
		level := runlevel.Levels[i]
		if int32(level) > d.level.Load() {
			continue
		}
		if err := d.SwitchRunlevel(ctx, level, runlevel.TearDown); err != nil {
			return err
		}
	}
	return nil
}

// SwitchRunlevel brings level up or tears it down. Levels must be brought up
// one at a time in order and torn down in reverse.
func (d *Domain) SwitchRunlevel(ctx context.Context, level runlevel.Level, phase runlevel.Phase) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	current := runlevel.Level(d.level.Load())
	expected := current + 1
	if phase == runlevel.TearDown {
		expected = current
	}
	if !level.Valid() || level != expected {
		d.logger.WithFields(logrus.Fields{
			"runlevel": level.String(),
			"current":  current.String(),
			"phase":    phase.String(),
		}).Warn("rejected run-level switch")
		return errors.Wrapf(ErrTransition, "%v %v at %v", phase, level, current)
	}

	var err error
	if phase == runlevel.BringUp {
		err = d.bringUp(ctx, level)
	} else {
		err = d.tearDown(ctx, level)
	}
	if err != nil {
		return errors.Wrapf(err, "%v %v", phase, level)
	}
	next := level
	if phase == runlevel.TearDown {
		next = level - 1
	}
	d.level.Store(int32(next))
	d.logger.WithFields(logrus.Fields{"runlevel": level.String(), "phase": phase.String()}).Info("run-level switched")
	d.publish(ctx, &event.Context{EventType: event.RunlevelChanged}, level, map[string]interface{}{"phase": phase.String()})
	return nil
}

func (d *Domain) bringUp(ctx context.Context, level runlevel.Level) error {
	switch level {
	case runlevel.ConfigParse:
		return d.config.Validate()
	case runlevel.PDOK:
		return d.build()
	case runlevel.GUIDOK:
		return d.up(ctx, d.provider)
	case runlevel.MemoryOK:
		return d.up(ctx, d.target, d.allocator)
	case runlevel.ComputeOK:
		return d.up(ctx, d.scheduler, d.workers)
	}
	return nil
}

func (d *Domain) tearDown(ctx context.Context, level runlevel.Level) error {
	switch level {
	case runlevel.ComputeOK:
		return d.down(ctx, d.scheduler, d.workers)
	case runlevel.MemoryOK:
		return d.down(ctx, d.target, d.allocator)
	case runlevel.GUIDOK:
		return d.down(ctx, d.provider)
	case runlevel.PDOK:
		if d.listener != nil {
			d.listener.Stop()
		}
	}
	return nil
}

func (d *Domain) up(ctx context.Context, modules ...runlevel.Module) error {
	if err := runlevel.Up(ctx, runlevel.Begun, modules...); err != nil {
		return err
	}
	return runlevel.Up(ctx, runlevel.Started, modules...)
}

func (d *Domain) down(ctx context.Context, modules ...runlevel.Module) error {
	if err := runlevel.Down(ctx, runlevel.Stopped, modules...); err != nil {
		return err
	}
	return runlevel.Down(ctx, runlevel.Finished, modules...)
}

// build creates the domain services.
func (d *Domain) build() error {
	d.provider = guid.NewProvider(d.logger)
	target, err := memory.New(d.config.Memory, d.logger)
	if err != nil {
		return err
	}
	d.target = target
	d.allocator = d.newAllocator()
	d.scheduler, err = scheduler.New(d.config.Scheduler, d.config.Workers.Count, d.provider,
		scheduler.WithLogger(d.logger),
		scheduler.WithMetrics(scheduler.NewMetrics(d.scope)))
	if err != nil {
		return err
	}
	d.workers, err = worker.New(d,
		worker.WithConfig(d.config.Workers),
		worker.WithFirstID(d.config.Scheduler.WorkerIDFirst),
		worker.WithLogger(d.logger),
		worker.WithMetrics(worker.NewMetrics(d.scope)))
	if err != nil {
		return err
	}
	if len(d.handlers) > 0 {
		d.publisher = event.NewPublisher[any](d.config.EventBuffer)
		handlers := d.handlers
		d.listener = event.NewListener(d.publisher, func(e *event.Event[any]) {
			for _, handler := range handlers {
				handler(e)
			}
		})
		d.listener.Start()
	}
	return nil
}

func (d *Domain) newAllocator() allocator.Allocator {
	switch d.config.Allocator.Kind {
	case allocator.KindNull:
		return null.New(d.logger)
	default:
		return simple.New(1, d.config.Allocator, d.target,
			simple.WithLogger(d.logger),
			simple.WithMetrics(allocator.NewMetrics(d.scope)))
	}
}

// TagRegion tags [start, end) of the memory target.
func (d *Domain) TagRegion(start, end uint64, tag rangetracker.Tag) error {
	if d.target == nil {
		return ErrNotRunning
	}
	return d.target.Tag(start, end, tag)
}

// QueryTag returns the tag of addr and the bounds of its region.
func (d *Domain) QueryTag(addr uint64) (rangetracker.Tag, uint64, uint64, error) {
	if d.target == nil {
		return 0, 0, 0, ErrNotRunning
	}
	return d.target.QueryTag(addr)
}

// Allocate returns size bytes from the domain allocator.
func (d *Domain) Allocate(size uint64) (uint64, []byte, error) {
	if d.allocator == nil {
		return 0, nil, ErrNotRunning
	}
	addr, err := d.allocator.Allocate(size)
	if err != nil {
		return 0, nil, err
	}
	return addr, d.allocator.Bytes(addr, size), nil
}

// Free releases memory returned by Allocate.
func (d *Domain) Free(addr uint64) error {
	if d.allocator == nil {
		return ErrNotRunning
	}
	return d.allocator.Free(addr)
}

// Workers returns the worker ids.
func (d *Domain) Workers() []int {
	ids := make([]int, d.config.Workers.Count)
	for i := range ids {
		ids[i] = d.config.Scheduler.WorkerIDFirst + i
	}
	return ids
}

func (d *Domain) publish(ctx context.Context, eventContext *event.Context, data interface{}, metadata map[string]interface{}) {
	if d.publisher == nil {
		return
	}
	eventContext.Domain = d.ID
	e := event.NewEvent[any](eventContext, data)
	for k, v := range metadata {
		e.Metadata[k] = v
	}
	if err := d.publisher.Publish(context.WithoutCancel(ctx), e); err != nil {
		d.logger.WithError(err).WithField("event", string(eventContext.EventType)).Debug("dropped event")
	}
}
