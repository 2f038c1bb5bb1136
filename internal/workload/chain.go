package workload

import (
	"context"
	"encoding/binary"

	"github.com/viant/edt/model/task"
	"github.com/viant/edt/policy"
	"github.com/viant/edt/service/guid"
)

// Chain runs n tasks one after another, each depending on its predecessor
// and passing on a counter incremented once per task. The result is n.
func Chain(ctx context.Context, d *policy.Domain, n uint64) (uint64, error) {
	tmpl, err := d.CreateTemplate("chain", func(ctx context.Context, _ []uint64, deps []task.Dep) (guid.GUID, error) {
		domain := policy.FromContext(ctx)
		v, err := consume(domain, deps[0])
		if err != nil {
			return guid.Null, err
		}
		db, data, err := domain.CreateDataBlock(8)
		if err != nil {
			return guid.Null, err
		}
		binary.LittleEndian.PutUint64(data, v+1)
		return db, nil
	}, 0, 1)
	if err != nil {
		return 0, err
	}
	defer func() { _ = d.DestroyTemplate(tmpl) }()

	done, results, err := sink(ctx, d, "chain.done")
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if err = d.AddDependence(ctx, guid.Null, done, 0, task.ModeRO); err != nil {
			return 0, err
		}
		return wait(ctx, results)
	}
	links := make([]guid.GUID, n)
	for i := range links {
		if links[i], err = d.CreateTask(ctx, tmpl); err != nil {
			return 0, err
		}
	}
	for i := 1; i < len(links); i++ {
		if err = d.AddDependence(ctx, links[i-1], links[i], 0, task.ModeRO); err != nil {
			return 0, err
		}
	}
	if err = d.AddDependence(ctx, links[len(links)-1], done, 0, task.ModeRO); err != nil {
		return 0, err
	}
	if err = d.AddDependence(ctx, guid.Null, links[0], 0, task.ModeRO); err != nil {
		return 0, err
	}
	return wait(ctx, results)
}
