// Package workpile holds ready task handles for one worker. The owning
// worker pushes and pops at the hot end; any other worker may steal from the
// cold end.
package workpile

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
)

// Kind selects a workpile implementation.
type Kind string

const (
	// KindDeque is the lock-free Chase-Lev deque.
	KindDeque Kind = "deque"
	// KindLocked is a spinlock protected deque that also accepts pushes from
	// several goroutines.
	KindLocked Kind = "locked"
)

// Config represents workpile configuration.
type Config struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Capacity is the initial number of slots; piles grow on demand.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// DefaultConfig returns a Chase-Lev deque with 256 slots.
func DefaultConfig() Config {
	return Config{Kind: KindDeque, Capacity: 256}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Kind {
	case KindDeque, KindLocked:
	default:
		return errors.Errorf("workpile.kind %q is not supported", c.Kind)
	}
	if c.Capacity < 2 {
		return errors.Errorf("workpile.capacity must be >= 2, got %d", c.Capacity)
	}
	return nil
}

// Workpile is a double ended sequence of task handles.
type Workpile interface {
	runlevel.Module
	// Push adds g at the hot end. Owner only.
	Push(g guid.GUID)
	// Pop removes the most recently pushed handle. Owner only.
	Pop() (guid.GUID, bool)
	// Steal removes the oldest handle. Safe from any goroutine; a lost race
	// reports false without retrying.
	Steal() (guid.GUID, bool)
	// Len is the number of handles; it is a snapshot under concurrency.
	Len() int
}

// New creates a workpile of the configured kind.
func New(name string, config Config, logger logrus.FieldLogger) (Workpile, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Kind {
	case KindLocked:
		return NewLocked(name, config.Capacity, logger), nil
	default:
		return NewDeque(name, config.Capacity, logger), nil
	}
}
