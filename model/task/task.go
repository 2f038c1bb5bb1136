// Package task defines the runnable unit of work and its dependency
// resolution state machine.
package task

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/viant/edt/service/guid"
)

const wordSize = 8

// ParamBytes returns the storage needed for n parameters.
func ParamBytes(n int) uint64 {
	return uint64(n) * wordSize
}

type slot struct {
	guid      guid.GUID
	mode      Mode
	data      []byte
	added     atomic.Bool
	satisfied atomic.Bool
}

// Successor is a dependence edge out of a task: when the task is reaped its
// result satisfies Slot of Task.
type Successor struct {
	Task guid.GUID
	Slot int
	Mode Mode
}

// Task is a single schedulable unit of work.
type Task struct {
	GUID     guid.GUID
	Template *Template
	// ParamAddr is the allocator address of the parameter vector.
	ParamAddr uint64

	params    []byte
	slots     []slot
	frontier  atomic.Int32
	satisfied atomic.Int32
	added     atomic.Int32
	state     atomic.Int32

	mu         sync.Mutex
	reaped     bool
	result     guid.GUID
	successors []Successor
}

// New creates a task of template tmpl. paramMem must hold ParamBytes of the
// template's param count and receives params little-endian. A task with no
// dependencies is created ALL_ACQUIRED.
func New(g guid.GUID, tmpl *Template, paramAddr uint64, paramMem []byte, params []uint64) (*Task, error) {
	if len(params) != tmpl.Paramc {
		return nil, errors.Errorf("template %q expects %d params, got %d", tmpl.Name, tmpl.Paramc, len(params))
	}
	if uint64(len(paramMem)) < ParamBytes(tmpl.Paramc) {
		return nil, errors.Errorf("template %q: param storage too small", tmpl.Name)
	}
	t := &Task{
		GUID:      g,
		Template:  tmpl,
		ParamAddr: paramAddr,
		params:    paramMem[:ParamBytes(tmpl.Paramc)],
		slots:     make([]slot, tmpl.Depc),
	}
	for i, p := range params {
		binary.LittleEndian.PutUint64(t.params[i*wordSize:], p)
	}
	t.state.Store(int32(Created))
	if tmpl.Depc == 0 {
		t.state.Store(int32(AllAcquired))
	}
	return t, nil
}

// State returns the current state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Satisfied returns the number of satisfied slots.
func (t *Task) Satisfied() int {
	return int(t.satisfied.Load())
}

// Params decodes the parameter vector.
func (t *Task) Params() []uint64 {
	result := make([]uint64, len(t.params)/wordSize)
	for i := range result {
		result[i] = binary.LittleEndian.Uint64(t.params[i*wordSize:])
	}
	return result
}

// Deps returns the resolved dependencies. Valid once the task is ALL_ACQUIRED.
func (t *Task) Deps() []Dep {
	result := make([]Dep, len(t.slots))
	for i := range t.slots {
		result[i] = Dep{GUID: t.slots[i].guid, Mode: t.slots[i].mode, Data: t.slots[i].data}
	}
	return result
}

// AddDependence declares the mode of slot. Once every slot is declared the
// task reaches ALL_DEPS_ADDED.
func (t *Task) AddDependence(slotIndex int, mode Mode) {
	s := t.slot(slotIndex)
	if !s.added.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("task %v: dependence on slot %d added twice", t.GUID, slotIndex))
	}
	s.mode = mode
	if int(t.added.Inc()) == len(t.slots) {
		t.advance(AllDepsAdded)
	}
}

// Satisfy resolves slot with g and its data view. Exactly one caller, the one
// that satisfies the last slot, receives true; it has moved the task to
// ALL_ACQUIRED and must hand it to the scheduler.
func (t *Task) Satisfy(slotIndex int, g guid.GUID, data []byte) bool {
	s := t.slot(slotIndex)
	if !s.satisfied.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("task %v: slot %d satisfied twice", t.GUID, slotIndex))
	}
	s.guid = g
	s.data = data
	count := int(t.satisfied.Inc())
	if count < len(t.slots) {
		t.advance(PartialSat)
		return false
	}
	t.advance(AllSat)
	t.acquire()
	t.advance(AllAcquired)
	return true
}

// acquire walks the frontier over every slot. Data is local to the domain so
// acquisition never has to wait.
func (t *Task) acquire() {
	for i := int(t.frontier.Load()); i < len(t.slots); i++ {
		if !t.slots[i].satisfied.Load() {
			panic(fmt.Sprintf("task %v: acquiring unsatisfied slot %d", t.GUID, i))
		}
		t.frontier.Store(int32(i + 1))
	}
}

// Begin moves an ALL_ACQUIRED task to RUNNING.
func (t *Task) Begin() {
	t.transition(AllAcquired, Running)
}

// Reap moves a RUNNING task to REAPING, records its result and returns the
// successors to notify.
func (t *Task) Reap(result guid.GUID) []Successor {
	t.transition(Running, Reaping)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reaped = true
	t.result = result
	successors := t.successors
	t.successors = nil
	return successors
}

// AddSuccessor registers a dependence edge. If the task was already reaped
// the edge is not recorded and its result is returned with true, so the
// caller satisfies the successor directly.
func (t *Task) AddSuccessor(successor Successor) (guid.GUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reaped {
		return t.result, true
	}
	t.successors = append(t.successors, successor)
	return guid.Null, false
}

func (t *Task) String() string {
	return fmt.Sprintf("%v(%s %v %d/%d)", t.GUID, t.Template.Name, t.State(), t.Satisfied(), len(t.slots))
}

func (t *Task) slot(i int) *slot {
	if i < 0 || i >= len(t.slots) {
		panic(fmt.Sprintf("task %v: slot %d out of range [0, %d)", t.GUID, i, len(t.slots)))
	}
	return &t.slots[i]
}

func (t *Task) advance(state State) {
	for {
		current := t.state.Load()
		if current >= int32(state) {
			return
		}
		if t.state.CompareAndSwap(current, int32(state)) {
			return
		}
	}
}

func (t *Task) transition(from, to State) {
	if !t.state.CompareAndSwap(int32(from), int32(to)) {
		panic(fmt.Sprintf("task %v: illegal transition %v -> %v", t.GUID, t.State(), to))
	}
}
