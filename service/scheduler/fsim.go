package scheduler

import (
	"context"

	"go.uber.org/atomic"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/model/task"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/workpile"
)

// FSim is the controller/executor scheduler. Every worker owns two piles:
// the even pile holds assigned work (an XE's queue, a CE's own work stash),
// the odd pile is an XE's shipping pile or a CE's message pile.
//
// Executors never run work they produce directly: they buffer it in their
// shipping pile and ask their controller to pick it up. Controllers route it
// back to executors with Assign.
type FSim struct {
	base
	piles []workpile.Workpile
	next  atomic.Uint32
}

var _ Scheduler = (*FSim)(nil)

func newFSim(b base) (*FSim, error) {
	s := &FSim{base: b}
	s.Guard.Name = "scheduler.fsim"
	kinds := make([]workpile.Kind, 2*b.workers)
	for i := 0; i < b.workers; i++ {
		if i < b.config.Controllers {
			// CE work stash is owner pushed, the message pile takes every XE.
			kinds[2*i] = b.config.Workpile.Kind
			kinds[2*i+1] = workpile.KindLocked
			continue
		}
		// XE assigned pile is fed by controllers, shipping pile by its owner.
		kinds[2*i] = workpile.KindLocked
		kinds[2*i+1] = b.config.Workpile.Kind
	}
	piles, err := s.newPiles("fsim", kinds)
	if err != nil {
		return nil, err
	}
	s.piles = piles
	return s, nil
}

func (s *FSim) modules() []runlevel.Module {
	modules := make([]runlevel.Module, len(s.piles))
	for i, pile := range s.piles {
		modules[i] = pile
	}
	return modules
}

func (s *FSim) Begin(ctx context.Context) error {
	if !s.Enter(runlevel.Begun) {
		return nil
	}
	return runlevel.Up(ctx, runlevel.Begun, s.modules()...)
}

// Start starts the piles and registers the scheduler.
func (s *FSim) Start(ctx context.Context) error {
	if !s.Enter(runlevel.Started) {
		return nil
	}
	if err := runlevel.Up(ctx, runlevel.Started, s.modules()...); err != nil {
		return err
	}
	s.self = s.registry.Register(guid.KindScheduler, s)
	return nil
}

func (s *FSim) Stop(ctx context.Context) error {
	if !s.Enter(runlevel.Stopped) {
		return nil
	}
	return runlevel.Down(ctx, runlevel.Stopped, s.modules()...)
}

func (s *FSim) Finish(ctx context.Context) error {
	if !s.Enter(runlevel.Finished) {
		return nil
	}
	if err := runlevel.Down(ctx, runlevel.Finished, s.modules()...); err != nil {
		return err
	}
	if !s.self.IsNull() {
		_ = s.registry.Release(s.self)
		s.self = guid.Null
	}
	return nil
}

// Role reports CE for the first Controllers workers and XE for the rest.
func (s *FSim) Role(worker int) Role {
	if s.index(worker) < s.config.Controllers {
		return RoleCE
	}
	return RoleXE
}

func (s *FSim) work(i int) workpile.Workpile {
	return s.piles[2*i]
}

func (s *FSim) shipping(i int) workpile.Workpile {
	return s.piles[2*i+1]
}

// controller returns the CE index serving XE index i.
func (s *FSim) controller(i int) int {
	return i % s.config.Controllers
}

// Take pops an XE's assigned pile. A CE drains its own work stash before
// looking at its messages.
func (s *FSim) Take(worker int) (guid.GUID, bool) {
	i := s.index(worker)
	if g, ok := s.work(i).Pop(); ok {
		s.metrics.TakePop.Inc(1)
		return g, true
	}
	if i < s.config.Controllers {
		if g, ok := s.shipping(i).Steal(); ok {
			s.metrics.TakeSteal.Inc(1)
			return g, true
		}
	}
	s.metrics.TakeEmpty.Inc(1)
	return guid.Null, false
}

// Give routes handles according to the giver's role and whether each handle
// is user work or a control message.
func (s *FSim) Give(worker int, handles []guid.GUID) []guid.GUID {
	i := s.index(worker)
	if i < s.config.Controllers {
		s.giveCE(i, handles)
		return handles
	}
	s.giveXE(worker, i, handles)
	return handles
}

func (s *FSim) giveCE(i int, handles []guid.GUID) {
	for k, g := range handles {
		switch {
		case g.IsNull():
			continue
		case task.IsMessage(g):
			s.shipping(i).Push(g)
		case s.acquired(g):
			s.work(i).Push(g)
		default:
			s.metrics.GiveSkipped.Inc(1)
			continue
		}
		handles[k] = guid.Null
		s.metrics.GivePushed.Inc(1)
	}
}

func (s *FSim) giveXE(worker, i int, handles []guid.GUID) {
	ce := s.controller(i)
	shipped := false
	for k, g := range handles {
		switch {
		case g.IsNull():
			continue
		case task.IsMessage(g):
			s.shipping(ce).Push(g)
		case s.acquired(g):
			s.shipping(i).Push(g)
			shipped = true
		default:
			s.metrics.GiveSkipped.Inc(1)
			continue
		}
		handles[k] = guid.Null
		s.metrics.GivePushed.Inc(1)
	}
	if !shipped {
		return
	}
	msg := &task.Message{Type: task.PickMyWorkUp, From: worker}
	msg.GUID = s.registry.Register(guid.KindMessage, msg)
	s.shipping(ce).Push(msg.GUID)
	s.metrics.MessageCreated.Inc(1)
}

// Submit assigns ALL_ACQUIRED tasks to executors round robin.
func (s *FSim) Submit(handles []guid.GUID) []guid.GUID {
	for k, g := range handles {
		if g.IsNull() {
			continue
		}
		if !s.acquired(g) {
			s.metrics.GiveSkipped.Inc(1)
			continue
		}
		s.Assign(g)
		handles[k] = guid.Null
		s.metrics.GivePushed.Inc(1)
	}
	return handles
}

// Unship steals everything buffered in the shipping pile of executor worker.
func (s *FSim) Unship(worker int) []guid.GUID {
	i := s.index(worker)
	if i < s.config.Controllers {
		panic("scheduler.fsim: unship from a controller")
	}
	var result []guid.GUID
	pile := s.shipping(i)
	for pile.Len() > 0 {
		if g, ok := pile.Steal(); ok {
			result = append(result, g)
		}
	}
	return result
}

// Assign pushes g onto the next executor's assigned pile.
func (s *FSim) Assign(g guid.GUID) {
	executors := uint32(s.workers - s.config.Controllers)
	i := s.config.Controllers + int((s.next.Inc()-1)%executors)
	s.work(i).Push(g)
}

// Pile exposes the assigned (even) or shipping/message (odd) pile of worker.
func (s *FSim) Pile(worker int, odd bool) workpile.Workpile {
	i := s.index(worker)
	if odd {
		return s.shipping(i)
	}
	return s.work(i)
}
