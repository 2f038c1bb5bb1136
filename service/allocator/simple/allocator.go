package simple

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/allocator"
	"github.com/viant/edt/service/rangetracker"
)

// Chunker supplies the arena region the pool lives in.
type Chunker interface {
	ChunkAndTag(size uint64, prevTag, newTag rangetracker.Tag) (uint64, error)
	Tag(start, end uint64, tag rangetracker.Tag) error
	Bytes(start, size uint64) []byte
}

// Allocator claims a USER_FREE chunk of the memory target at begin, runs a
// Pool over it and gives the chunk back at finish. Addresses are
// target-global.
type Allocator struct {
	runlevel.Guard
	id      uint64
	config  allocator.Config
	target  Chunker
	base    uint64
	pool    atomic.Pointer[Pool]
	metrics *allocator.Metrics
	logger  logrus.FieldLogger
}

var _ allocator.Allocator = (*Allocator)(nil)

// Option configures the Allocator.
type Option func(*Allocator)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *allocator.Metrics) Option {
	return func(a *Allocator) {
		a.metrics = metrics
	}
}

// New creates an allocator; no memory is claimed until Begin.
func New(id uint64, config allocator.Config, target Chunker, options ...Option) *Allocator {
	a := &Allocator{id: id, config: config, target: target}
	for _, opt := range options {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logrus.StandardLogger()
	}
	if a.metrics == nil {
		a.metrics = allocator.NewMetrics(nil)
	}
	a.Guard.Name = "allocator.simple"
	a.Guard.Logger = a.logger
	return a
}

// Begin claims the pool chunk and formats it.
func (a *Allocator) Begin(context.Context) error {
	if !a.Enter(runlevel.Begun) {
		return nil
	}
	base, err := a.target.ChunkAndTag(a.config.PoolSize, rangetracker.UserFree, rangetracker.UserUsed)
	if err != nil {
		return errors.Wrapf(err, "allocator %d: failed to claim %d bytes", a.id, a.config.PoolSize)
	}
	pool, err := NewPool(a.id, a.target.Bytes(base, a.config.PoolSize), a.logger)
	if err != nil {
		return err
	}
	a.base = base
	a.pool.Store(pool)
	a.logger.WithFields(logrus.Fields{"allocator": a.id, "base": base, "size": pool.Size()}).Info("pool ready")
	return nil
}

func (a *Allocator) Start(context.Context) error {
	a.Enter(runlevel.Started)
	return nil
}

func (a *Allocator) Stop(context.Context) error {
	a.Enter(runlevel.Stopped)
	return nil
}

// Finish returns the chunk to the target as USER_FREE.
func (a *Allocator) Finish(context.Context) error {
	if !a.Enter(runlevel.Finished) {
		return nil
	}
	pool := a.pool.Swap(nil)
	if pool == nil {
		return nil
	}
	return a.target.Tag(a.base, a.base+a.config.PoolSize, rangetracker.UserFree)
}

// Allocate returns a target-global address of size usable bytes.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	pool := a.pool.Load()
	if pool == nil {
		return 0, allocator.ErrNotReady
	}
	addr, ok := pool.Allocate(size)
	if !ok {
		a.metrics.OutOfMemory.Inc(1)
		return 0, errors.Wrapf(allocator.ErrOutOfMemory, "allocate %d bytes", size)
	}
	a.metrics.Alloc.Inc(1)
	a.metrics.AllocBytes.Inc(int64(size))
	return a.base + addr, nil
}

// Free releases addr. Invalid addresses are logged and ignored.
func (a *Allocator) Free(addr uint64) error {
	pool := a.pool.Load()
	if pool == nil {
		return allocator.ErrNotReady
	}
	if addr < a.base || addr >= a.base+pool.Size() {
		a.metrics.BadFree.Inc(1)
		a.logger.WithFields(logrus.Fields{"allocator": a.id, "addr": addr}).Warn("free: address outside the pool")
		return errors.Wrapf(allocator.ErrInvalidFree, "0x%x outside pool", addr)
	}
	if err := pool.Free(addr - a.base); err != nil {
		a.metrics.BadFree.Inc(1)
		return err
	}
	a.metrics.Free.Inc(1)
	return nil
}

// Bytes returns the memory behind an allocation, nil without a pool.
func (a *Allocator) Bytes(addr, size uint64) []byte {
	pool := a.pool.Load()
	if pool == nil {
		return nil
	}
	return pool.Bytes(addr-a.base, size)
}

// Pool returns the underlying pool, nil before Begin or after Finish.
func (a *Allocator) Pool() *Pool {
	return a.pool.Load()
}
