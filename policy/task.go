package policy

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/model/datablock"
	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/model/task"
	"github.com/viant/edt/progress"
	"github.com/viant/edt/service/guid"
)

func (d *Domain) ready() error {
	if d.Level() != runlevel.UserOK {
		return ErrNotRunning
	}
	return nil
}

// CreateTemplate registers a task template.
func (d *Domain) CreateTemplate(name string, fn task.Func, paramc, depc int) (guid.GUID, error) {
	if err := d.ready(); err != nil {
		return guid.Null, err
	}
	tmpl, err := task.NewTemplate(name, fn, paramc, depc)
	if err != nil {
		return guid.Null, err
	}
	tmpl.GUID = d.provider.Register(guid.KindTemplate, tmpl)
	return tmpl.GUID, nil
}

// DestroyTemplate releases a template. Tasks already created keep using it.
func (d *Domain) DestroyTemplate(g guid.GUID) error {
	if _, err := guid.Lookup[*task.Template](d.provider, g); err != nil {
		return err
	}
	return d.provider.Release(g)
}

// CreateTask instantiates template with params. The parameter vector is
// stored in allocator memory, so creation fails with
// allocator.ErrOutOfMemory when the pool is exhausted. A template without
// dependencies yields a task that is scheduled immediately.
func (d *Domain) CreateTask(ctx context.Context, template guid.GUID, params ...uint64) (guid.GUID, error) {
	if err := d.ready(); err != nil {
		return guid.Null, err
	}
	tmpl, err := guid.Lookup[*task.Template](d.provider, template)
	if err != nil {
		return guid.Null, errors.Wrap(err, "create task")
	}
	if len(params) != tmpl.Paramc {
		return guid.Null, errors.Errorf("template %q expects %d params, got %d", tmpl.Name, tmpl.Paramc, len(params))
	}
	var addr uint64
	var mem []byte
	if tmpl.Paramc > 0 {
		size := task.ParamBytes(tmpl.Paramc)
		if addr, err = d.allocator.Allocate(size); err != nil {
			return guid.Null, errors.Wrapf(err, "create task %q", tmpl.Name)
		}
		mem = d.allocator.Bytes(addr, size)
	}
	t, err := task.New(guid.Null, tmpl, addr, mem, params)
	if err != nil {
		d.freeParams(addr)
		return guid.Null, err
	}
	t.GUID = d.provider.Register(guid.KindTask, t)
	d.progress.Update(progress.Delta{Total: 1, Pending: 1})
	if t.State() == task.AllAcquired {
		d.NotifyReady(ctx, t.GUID)
	}
	return t.GUID, nil
}

// AddDependence wires source into slot of destination with mode.
//
// A data block source, or the null GUID for a pure control dependence,
// satisfies the slot immediately. A task source satisfies it with that task's
// result once the task is reaped; the dependence has to be added before the
// source task can run.
func (d *Domain) AddDependence(ctx context.Context, source, destination guid.GUID, slot int, mode task.Mode) error {
	if err := d.ready(); err != nil {
		return err
	}
	dst, err := guid.Lookup[*task.Task](d.provider, destination)
	if err != nil {
		return errors.Wrap(err, "add dependence")
	}
	dst.AddDependence(slot, mode)
	if source.Kind() != guid.KindTask {
		return d.Satisfy(ctx, destination, slot, source)
	}
	src, err := guid.Lookup[*task.Task](d.provider, source)
	if err != nil {
		return errors.Wrap(err, "add dependence")
	}
	if result, done := src.AddSuccessor(task.Successor{Task: destination, Slot: slot, Mode: mode}); done {
		return d.Satisfy(ctx, destination, slot, result)
	}
	return nil
}

// Satisfy resolves slot of destination with g, a data block or the null GUID.
// The caller that satisfies the last slot schedules the task.
func (d *Domain) Satisfy(ctx context.Context, destination guid.GUID, slot int, g guid.GUID) error {
	dst, err := guid.Lookup[*task.Task](d.provider, destination)
	if err != nil {
		return errors.Wrap(err, "satisfy")
	}
	var data []byte
	if g.Kind() == guid.KindDataBlock {
		db, err := guid.Lookup[*datablock.DataBlock](d.provider, g)
		if err != nil {
			return errors.Wrap(err, "satisfy")
		}
		data = db.Data
	}
	if dst.Satisfy(slot, g, data) {
		d.NotifyReady(ctx, destination)
	}
	return nil
}

// NotifyReady hands an ALL_ACQUIRED task to the scheduler: through Give when
// called on a worker, Submit otherwise.
func (d *Domain) NotifyReady(ctx context.Context, g guid.GUID) {
	handles := []guid.GUID{g}
	if worker, ok := WorkerFromContext(ctx); ok {
		d.scheduler.Give(worker, handles)
	} else {
		d.scheduler.Submit(handles)
	}
	if !handles[0].IsNull() {
		d.logger.WithField("guid", g.String()).Warn("scheduler did not accept ready task")
	}
}

// CreateDataBlock allocates size bytes and names them.
func (d *Domain) CreateDataBlock(size uint64) (guid.GUID, []byte, error) {
	if err := d.ready(); err != nil {
		return guid.Null, nil, err
	}
	addr, data, err := d.Allocate(size)
	if err != nil {
		return guid.Null, nil, errors.Wrap(err, "create data block")
	}
	db := &datablock.DataBlock{Addr: addr, Size: size, Data: data}
	db.GUID = d.provider.Register(guid.KindDataBlock, db)
	return db.GUID, data, nil
}

// DestroyDataBlock frees a data block.
func (d *Domain) DestroyDataBlock(g guid.GUID) error {
	db, err := guid.Lookup[*datablock.DataBlock](d.provider, g)
	if err != nil {
		return errors.Wrap(err, "destroy data block")
	}
	if err = d.provider.Release(g); err != nil {
		return err
	}
	return d.allocator.Free(db.Addr)
}

// DataBlock resolves a data block handle.
func (d *Domain) DataBlock(g guid.GUID) (*datablock.DataBlock, error) {
	return guid.Lookup[*datablock.DataBlock](d.provider, g)
}

// Task resolves a task handle.
func (d *Domain) Task(g guid.GUID) (*task.Task, error) {
	return guid.Lookup[*task.Task](d.provider, g)
}

func (d *Domain) freeParams(addr uint64) {
	if addr == 0 {
		return
	}
	if err := d.allocator.Free(addr); err != nil {
		d.logger.WithError(err).WithField("addr", addr).Warn("failed to free task params")
	}
}

func (d *Domain) taskLogger(worker int, t *task.Task) logrus.FieldLogger {
	return d.logger.WithFields(logrus.Fields{
		"worker":   worker,
		"guid":     t.GUID.String(),
		"template": t.Template.Name,
	})
}
