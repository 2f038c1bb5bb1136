package task

import (
	"context"

	"github.com/pkg/errors"

	"github.com/viant/edt/service/guid"
)

// Dep is a resolved dependency as seen by a running task.
type Dep struct {
	GUID guid.GUID
	Mode Mode
	// Data is the view of the data block backing GUID, if any.
	Data []byte
}

// Func is a task entry point. The returned GUID, if not null, is forwarded to
// the task's successors.
//
// ctx is bound to the worker goroutine running the task and must only be used
// on it. Goroutines spawned by the task take policy.Detach(ctx).
type Func func(ctx context.Context, params []uint64, deps []Dep) (guid.GUID, error)

// Template is the immutable descriptor shared by task instances.
type Template struct {
	GUID   guid.GUID
	Name   string
	Func   Func
	Paramc int
	Depc   int
}

// NewTemplate validates and creates a template. The GUID is assigned by the
// caller once registered.
func NewTemplate(name string, fn Func, paramc, depc int) (*Template, error) {
	if fn == nil {
		return nil, errors.Errorf("template %q: nil func", name)
	}
	if paramc < 0 || depc < 0 {
		return nil, errors.Errorf("template %q: negative param or dep count", name)
	}
	return &Template{Name: name, Func: fn, Paramc: paramc, Depc: depc}, nil
}
