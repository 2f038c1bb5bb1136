// Package null provides an allocator that never has memory. It is useful to
// exercise out-of-memory paths and for domains that must not allocate.
package null

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/allocator"
)

// Allocator fails every allocation.
type Allocator struct {
	runlevel.Guard
	logger logrus.FieldLogger
}

var _ allocator.Allocator = (*Allocator)(nil)

// New creates a null allocator.
func New(logger logrus.FieldLogger) *Allocator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	a := &Allocator{logger: logger}
	a.Guard.Name = "allocator.null"
	a.Guard.Logger = logger
	return a
}

func (a *Allocator) Begin(context.Context) error {
	a.Enter(runlevel.Begun)
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

func (a *Allocator) Finish(context.Context) error {
	a.Enter(runlevel.Finished)
	return nil
}

// Allocate always reports out of memory.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	return 0, errors.Wrapf(allocator.ErrOutOfMemory, "null allocator: %d bytes", size)
}

// Free logs and ignores addr; nothing was ever allocated.
func (a *Allocator) Free(addr uint64) error {
	a.logger.WithField("addr", addr).Warn("free on null allocator")
	return errors.Wrapf(allocator.ErrInvalidFree, "null allocator: 0x%x", addr)
}

// Bytes always returns nil.
func (a *Allocator) Bytes(uint64, uint64) []byte {
	return nil
}
