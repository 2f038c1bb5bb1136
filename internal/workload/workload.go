// Package workload holds sample task graphs used by the CLI and tests.
package workload

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/viant/edt/model/task"
	"github.com/viant/edt/policy"
	"github.com/viant/edt/service/guid"
)

// Kind names a workload.
type Kind string

const (
	KindFib   Kind = "fib"
	KindChain Kind = "chain"
)

// Run executes workload kind with size n on d and returns its result.
func Run(ctx context.Context, d *policy.Domain, kind Kind, n uint64) (uint64, error) {
	switch kind {
	case KindFib:
		return Fib(ctx, d, n)
	case KindChain:
		return Chain(ctx, d, n)
	}
	return 0, errors.Errorf("unknown workload %q", kind)
}

// deliver stores v in a new data block and satisfies slot of dest with it.
func deliver(ctx context.Context, d *policy.Domain, dest guid.GUID, slot int, v uint64) error {
	db, data, err := d.CreateDataBlock(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(data, v)
	return d.Satisfy(ctx, dest, slot, db)
}

// consume reads and destroys the value block of dep. A null dependence reads
// as zero.
func consume(d *policy.Domain, dep task.Dep) (uint64, error) {
	if dep.GUID.Kind() != guid.KindDataBlock {
		return 0, nil
	}
	v := binary.LittleEndian.Uint64(dep.Data)
	return v, d.DestroyDataBlock(dep.GUID)
}

// sink creates a one-slot task that forwards its input value to a channel.
func sink(ctx context.Context, d *policy.Domain, name string) (guid.GUID, <-chan uint64, error) {
	results := make(chan uint64, 1)
	tmpl, err := d.CreateTemplate(name, func(ctx context.Context, _ []uint64, deps []task.Dep) (guid.GUID, error) {
		v, err := consume(policy.FromContext(ctx), deps[0])
		results <- v
		return guid.Null, err
	}, 0, 1)
	if err != nil {
		return guid.Null, nil, err
	}
	g, err := d.CreateTask(ctx, tmpl)
	return g, results, err
}

func wait(ctx context.Context, results <-chan uint64) (uint64, error) {
	select {
	case v := <-results:
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
