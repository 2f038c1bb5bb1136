package policy

import (
	"github.com/pkg/errors"

	"github.com/viant/edt/service/allocator"
	"github.com/viant/edt/service/memory"
	"github.com/viant/edt/service/scheduler"
	"github.com/viant/edt/service/worker"
)

// Config represents policy domain configuration.
type Config struct {
	Workers   worker.Config    `json:"workers" yaml:"workers"`
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Memory    memory.Config    `json:"memory" yaml:"memory"`
	Allocator allocator.Config `json:"allocator" yaml:"allocator"`
	// EventBuffer is the number of undelivered events kept for listeners.
	EventBuffer int `json:"eventBuffer" yaml:"eventBuffer"`
}

// DefaultConfig returns the default domain configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     worker.DefaultConfig(),
		Scheduler:   scheduler.DefaultConfig(),
		Memory:      memory.DefaultConfig(),
		Allocator:   allocator.DefaultConfig(),
		EventBuffer: 1024,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Workers.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(c.Workers.Count); err != nil {
		return err
	}
	if err := c.Allocator.Validate(); err != nil {
		return err
	}
	if c.Allocator.Kind == allocator.KindSimple && c.Allocator.PoolSize > c.Memory.Size {
		return errors.Errorf("allocator.poolSize %d exceeds memory.size %d", c.Allocator.PoolSize, c.Memory.Size)
	}
	// the allocator chunk leaves two boundaries; retagging it on finish needs two more
	if c.Memory.MaxSplits < 4 {
		return errors.Errorf("memory.maxSplits must be >= 4, got %d", c.Memory.MaxSplits)
	}
	return nil
}
