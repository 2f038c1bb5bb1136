// Package scheduler maps workers to workpiles and implements the take/give
// contract workers use to obtain and publish runnable tasks.
package scheduler

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/model/task"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/workpile"
)

// Kind selects a scheduler variant.
type Kind string

const (
	// KindHC is the homogeneous variant: one pile per worker, deterministic
	// ring stealing.
	KindHC Kind = "hc"
	// KindFSim is the controller/executor variant with two piles per worker.
	KindFSim Kind = "fsim"
)

// Role is the part a worker plays in the scheduler topology.
type Role int

const (
	// RoleWorker is any worker of a homogeneous scheduler.
	RoleWorker Role = iota
	// RoleCE is a controller: it routes messages and hands work to executors.
	RoleCE
	// RoleXE is an executor: it runs user work.
	RoleXE
)

func (r Role) String() string {
	switch r {
	case RoleCE:
		return "CE"
	case RoleXE:
		return "XE"
	}
	return "worker"
}

// Config represents scheduler configuration.
type Config struct {
	Kind          Kind `json:"kind" yaml:"kind"`
	WorkerIDFirst int  `json:"workerIDFirst" yaml:"workerIDFirst"`
	// Controllers is the number of CE workers; fsim only.
	Controllers int             `json:"controllers" yaml:"controllers"`
	Workpile    workpile.Config `json:"workpile" yaml:"workpile"`
}

// DefaultConfig returns the homogeneous scheduler over Chase-Lev deques.
func DefaultConfig() Config {
	return Config{
		Kind:        KindHC,
		Controllers: 1,
		Workpile:    workpile.DefaultConfig(),
	}
}

// Validate checks the configuration for a pool of workers.
func (c Config) Validate(workers int) error {
	if workers < 1 {
		return errors.Errorf("scheduler needs at least one worker, got %d", workers)
	}
	if c.WorkerIDFirst < 0 {
		return errors.Errorf("scheduler.workerIDFirst must be >= 0, got %d", c.WorkerIDFirst)
	}
	switch c.Kind {
	case KindHC:
	case KindFSim:
		if c.Controllers < 1 || c.Controllers >= workers {
			return errors.Errorf("fsim scheduler needs 1..%d controllers, got %d", workers-1, c.Controllers)
		}
	default:
		return errors.Errorf("scheduler.kind %q is not supported", c.Kind)
	}
	return errors.Wrap(c.Workpile.Validate(), "scheduler")
}

// Registry names scheduler objects and resolves task handles.
type Registry interface {
	guid.Resolver
	Register(kind guid.Kind, v interface{}) guid.GUID
	Release(g guid.GUID) error
}

// Scheduler hands runnable work to workers.
type Scheduler interface {
	runlevel.Module
	// Take returns the next handle for worker, or false when none is found.
	Take(worker int) (guid.GUID, bool)
	// Give publishes the ALL_ACQUIRED tasks among handles from worker. Every
	// transferred entry is set to guid.Null; the others are left for the
	// caller to resubmit. The slice is returned for convenience.
	Give(worker int, handles []guid.GUID) []guid.GUID
	// Submit publishes handles from a goroutine that is not a worker.
	Submit(handles []guid.GUID) []guid.GUID
	// Role reports the role of worker.
	Role(worker int) Role
	// Unship collects the work buffered in an executor's shipping pile.
	Unship(worker int) []guid.GUID
	// Assign pushes a task to an executor.
	Assign(g guid.GUID)
}

// Option configures a scheduler.
type Option func(*base)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *Metrics) Option {
	return func(b *base) {
		b.metrics = metrics
	}
}

// New creates a scheduler of the configured kind for workers workers.
func New(config Config, workers int, registry Registry, options ...Option) (Scheduler, error) {
	if err := config.Validate(workers); err != nil {
		return nil, err
	}
	b := base{config: config, workers: workers, registry: registry}
	for _, opt := range options {
		opt(&b)
	}
	if b.logger == nil {
		b.logger = logrus.StandardLogger()
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(nil)
	}
	b.Guard.Logger = b.logger
	switch config.Kind {
	case KindFSim:
		return newFSim(b)
	default:
		return newHC(b)
	}
}

// base holds what both variants share.
type base struct {
	runlevel.Guard
	config   Config
	workers  int
	registry Registry
	self     guid.GUID
	metrics  *Metrics
	logger   logrus.FieldLogger
}

// index maps a worker id onto [0, workers); anything else is a caller bug.
func (b *base) index(worker int) int {
	i := worker - b.config.WorkerIDFirst
	if i < 0 || i >= b.workers {
		panic(errors.Errorf("worker %d outside scheduler range [%d, %d)", worker, b.config.WorkerIDFirst, b.config.WorkerIDFirst+b.workers))
	}
	return i
}

// acquired reports whether g names a task that is exactly ALL_ACQUIRED.
func (b *base) acquired(g guid.GUID) bool {
	t, err := guid.Lookup[*task.Task](b.registry, g)
	if err != nil {
		return false
	}
	return t.State() == task.AllAcquired
}

func (b *base) newPiles(name string, kinds []workpile.Kind) ([]workpile.Workpile, error) {
	piles := make([]workpile.Workpile, len(kinds))
	for i, kind := range kinds {
		config := b.config.Workpile
		config.Kind = kind
		pile, err := workpile.New(fmt.Sprintf("%s.%d", name, i), config, b.logger)
		if err != nil {
			return nil, err
		}
		piles[i] = pile
	}
	return piles, nil
}
