package task

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/viant/edt/service/guid"
)

func noop(context.Context, []uint64, []Dep) (guid.GUID, error) {
	return guid.Null, nil
}

func newTask(t *testing.T, paramc, depc int, params ...uint64) *Task {
	tmpl, err := NewTemplate("noop", noop, paramc, depc)
	require.NoError(t, err)
	task, err := New(guid.New(1, guid.KindTask), tmpl, 64, make([]byte, ParamBytes(paramc)), params)
	require.NoError(t, err)
	return task
}

func TestTask_ZeroDependencies(t *testing.T) {
	task := newTask(t, 2, 0, 7, 42)
	assert.Equal(t, AllAcquired, task.State())
	assert.Equal(t, []uint64{7, 42}, task.Params())
	task.Begin()
	assert.Equal(t, Running, task.State())
	assert.Empty(t, task.Reap(guid.Null))
	assert.Equal(t, Reaping, task.State())
}

func TestTask_StateSequence(t *testing.T) {
	task := newTask(t, 0, 2)
	assert.Equal(t, Created, task.State())
	task.AddDependence(0, ModeRO)
	assert.Equal(t, Created, task.State())
	task.AddDependence(1, ModeEW)
	assert.Equal(t, AllDepsAdded, task.State())

	db := guid.New(9, guid.KindDataBlock)
	assert.False(t, task.Satisfy(1, db, []byte("b")))
	assert.Equal(t, PartialSat, task.State())
	assert.True(t, task.Satisfy(0, db, []byte("a")))
	assert.Equal(t, AllAcquired, task.State())
	assert.Equal(t, 2, task.Satisfied())

	deps := task.Deps()
	require.Len(t, deps, 2)
	assert.Equal(t, ModeRO, deps[0].Mode)
	assert.Equal(t, []byte("a"), deps[0].Data)
	assert.Equal(t, ModeEW, deps[1].Mode)
}

func TestTask_ProtocolViolations(t *testing.T) {
	task := newTask(t, 0, 1)
	assert.Panics(t, func() { task.Begin() }, "begin before ALL_ACQUIRED")
	assert.Panics(t, func() { task.Satisfy(3, guid.Null, nil) }, "slot out of range")
	task.Satisfy(0, guid.Null, nil)
	assert.Panics(t, func() { task.Satisfy(0, guid.Null, nil) }, "double satisfy")
	assert.Panics(t, func() { task.Reap(guid.Null) }, "reap before running")
	task.AddDependence(0, ModeRO)
	assert.Panics(t, func() { task.AddDependence(0, ModeRO) })
}

func TestTask_ConcurrentSatisfyReadyOnce(t *testing.T) {
	const depc = 64
	for round := 0; round < 20; round++ {
		task := newTask(t, 0, depc)
		ready := atomic.NewInt32(0)
		var wg sync.WaitGroup
		for i := 0; i < depc; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				if task.Satisfy(slot, guid.Null, nil) {
					ready.Inc()
				}
			}(i)
		}
		wg.Wait()
		assert.EqualValues(t, 1, ready.Load())
		assert.Equal(t, AllAcquired, task.State())
	}
}

func TestTask_Successors(t *testing.T) {
	producer := newTask(t, 0, 0)
	next := Successor{Task: guid.New(2, guid.KindTask), Slot: 0, Mode: ModeRO}
	_, done := producer.AddSuccessor(next)
	assert.False(t, done)

	producer.Begin()
	result := guid.New(5, guid.KindDataBlock)
	assert.Equal(t, []Successor{next}, producer.Reap(result))

	got, done := producer.AddSuccessor(next)
	assert.True(t, done)
	assert.Equal(t, result, got)
}

func TestNew_Validation(t *testing.T) {
	tmpl, err := NewTemplate("p", noop, 2, 0)
	require.NoError(t, err)
	_, err = New(guid.Null, tmpl, 0, make([]byte, 16), []uint64{1})
	assert.Error(t, err)
	_, err = New(guid.Null, tmpl, 0, make([]byte, 8), []uint64{1, 2})
	assert.Error(t, err)
	_, err = NewTemplate("nil", nil, 0, 0)
	assert.Error(t, err)
	_, err = NewTemplate("neg", noop, -1, 0)
	assert.Error(t, err)
}

func TestIsMessage(t *testing.T) {
	assert.True(t, IsMessage(guid.New(3, guid.KindMessage)))
	assert.False(t, IsMessage(guid.New(3, guid.KindTask)))
	assert.Equal(t, "PICK_MY_WORK_UP", PickMyWorkUp.String())
}
