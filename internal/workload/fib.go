package workload

import (
	"context"

	"github.com/viant/edt/model/task"
	"github.com/viant/edt/policy"
	"github.com/viant/edt/service/guid"
)

// Fib computes the n-th Fibonacci number as a task tree: fib(n) creates a
// sum task and two children that deliver into its slots.
func Fib(ctx context.Context, d *policy.Domain, n uint64) (uint64, error) {
	sumTemplate, err := d.CreateTemplate("sum", func(ctx context.Context, params []uint64, deps []task.Dep) (guid.GUID, error) {
		domain := policy.FromContext(ctx)
		a, err := consume(domain, deps[0])
		if err != nil {
			return guid.Null, err
		}
		b, err := consume(domain, deps[1])
		if err != nil {
			return guid.Null, err
		}
		return guid.Null, deliver(ctx, domain, guid.GUID(params[0]), int(params[1]), a+b)
	}, 2, 2)
	if err != nil {
		return 0, err
	}

	var fibTemplate guid.GUID
	fibTemplate, err = d.CreateTemplate("fib", func(ctx context.Context, params []uint64, _ []task.Dep) (guid.GUID, error) {
		domain := policy.FromContext(ctx)
		n, dest, slot := params[0], params[1], params[2]
		if n < 2 {
			return guid.Null, deliver(ctx, domain, guid.GUID(dest), int(slot), n)
		}
		sum, err := domain.CreateTask(ctx, sumTemplate, dest, slot)
		if err != nil {
			return guid.Null, err
		}
		if _, err = domain.CreateTask(ctx, fibTemplate, n-1, uint64(sum), 0); err != nil {
			return guid.Null, err
		}
		_, err = domain.CreateTask(ctx, fibTemplate, n-2, uint64(sum), 1)
		return guid.Null, err
	}, 3, 0)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = d.DestroyTemplate(fibTemplate)
		_ = d.DestroyTemplate(sumTemplate)
	}()

	done, results, err := sink(ctx, d, "fib.done")
	if err != nil {
		return 0, err
	}
	if _, err = d.CreateTask(ctx, fibTemplate, n, uint64(done), 0); err != nil {
		return 0, err
	}
	return wait(ctx, results)
}
