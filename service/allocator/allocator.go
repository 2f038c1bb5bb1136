// Package allocator defines the memory allocator contract used by the policy
// domain for task storage and data blocks.
package allocator

import (
	"github.com/pkg/errors"

	"github.com/viant/edt/model/runlevel"
)

var (
	// ErrOutOfMemory reports that no free block can satisfy a request. It is
	// recoverable; the caller decides whether to retry or fail.
	ErrOutOfMemory = errors.New("allocator: out of memory")
	// ErrInvalidFree reports a rejected free: foreign pointer, double free or
	// corrupted block. The free is a no-op.
	ErrInvalidFree = errors.New("allocator: invalid free")
	// ErrNotReady is returned when the allocator has no pool yet.
	ErrNotReady = errors.New("allocator: not ready")
)

// Kind selects an allocator implementation.
type Kind string

const (
	KindSimple Kind = "simple"
	KindNull   Kind = "null"
)

// Config represents allocator configuration.
type Config struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// PoolSize is the number of arena bytes the allocator claims at begin.
	PoolSize uint64 `json:"poolSize" yaml:"poolSize"`
}

// DefaultConfig returns a simple allocator with a 32MiB pool.
func DefaultConfig() Config {
	return Config{
		Kind:     KindSimple,
		PoolSize: 32 << 20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Kind {
	case KindSimple:
		if c.PoolSize < 64 {
			return errors.Errorf("allocator.poolSize must be >= 64, got %d", c.PoolSize)
		}
	case KindNull:
	default:
		return errors.Errorf("allocator.kind %q is not supported", c.Kind)
	}
	return nil
}

// Allocator hands out arena addresses. Address 0 is never a valid result.
type Allocator interface {
	runlevel.Module
	// Allocate returns the address of at least size usable bytes or
	// ErrOutOfMemory.
	Allocate(size uint64) (uint64, error)
	// Free releases an address returned by Allocate. Invalid addresses are
	// logged and ignored; the returned error wraps ErrInvalidFree.
	Free(addr uint64) error
	// Bytes returns a view of size bytes at addr.
	Bytes(addr, size uint64) []byte
}
