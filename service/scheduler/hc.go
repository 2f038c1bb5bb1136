package scheduler

import (
	"context"

	"go.uber.org/atomic"

	"github.com/viant/edt/model/runlevel"
	"github.com/viant/edt/service/guid"
	"github.com/viant/edt/service/workpile"
)

// HC is the homogeneous scheduler. Worker i owns pile i and steals around a
// ring starting at i+1. Work submitted from outside the worker pool lands in
// a shared inbox pile that every worker checks after its own.
type HC struct {
	base
	piles []workpile.Workpile
	inbox workpile.Workpile
	rings atomic.Pointer[[][]int]
}

var _ Scheduler = (*HC)(nil)

func newHC(b base) (*HC, error) {
	s := &HC{base: b}
	s.Guard.Name = "scheduler.hc"
	kinds := make([]workpile.Kind, b.workers)
	for i := range kinds {
		kinds[i] = b.config.Workpile.Kind
	}
	piles, err := s.newPiles("hc", kinds)
	if err != nil {
		return nil, err
	}
	s.piles = piles
	s.inbox = workpile.NewLocked("hc.inbox", b.config.Workpile.Capacity, b.logger)
	return s, nil
}

func (s *HC) modules() []runlevel.Module {
	modules := make([]runlevel.Module, 0, len(s.piles)+1)
	for _, pile := range s.piles {
		modules = append(modules, pile)
	}
	return append(modules, s.inbox)
}

// Begin begins every pile.
func (s *HC) Begin(ctx context.Context) error {
	if !s.Enter(runlevel.Begun) {
		return nil
	}
	return runlevel.Up(ctx, runlevel.Begun, s.modules()...)
}

// Start starts the piles, registers the scheduler and builds the steal rings.
func (s *HC) Start(ctx context.Context) error {
	if !s.Enter(runlevel.Started) {
		return nil
	}
	if err := runlevel.Up(ctx, runlevel.Started, s.modules()...); err != nil {
		return err
	}
	s.self = s.registry.Register(guid.KindScheduler, s)
	rings := make([][]int, len(s.piles))
	for i := range rings {
		rings[i] = make([]int, 0, len(s.piles)-1)
		for j := 1; j < len(s.piles); j++ {
			rings[i] = append(rings[i], (i+j)%len(s.piles))
		}
	}
	s.rings.Store(&rings)
	return nil
}

// Stop drops the steal rings before stopping the piles.
func (s *HC) Stop(ctx context.Context) error {
	if !s.Enter(runlevel.Stopped) {
		return nil
	}
	s.rings.Store(nil)
	return runlevel.Down(ctx, runlevel.Stopped, s.modules()...)
}

// Finish finishes the piles and releases the scheduler handle.
func (s *HC) Finish(ctx context.Context) error {
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

// Take pops the worker's own pile, then the inbox, then steals around the
// ring.
func (s *HC) Take(worker int) (guid.GUID, bool) {
	i := s.index(worker)
	if g, ok := s.piles[i].Pop(); ok {
		s.metrics.TakePop.Inc(1)
		return g, true
	}
	if g, ok := s.inbox.Steal(); ok {
		s.metrics.TakeSteal.Inc(1)
		return g, true
	}
	if rings := s.rings.Load(); rings != nil {
		for _, victim := range (*rings)[i] {
			if g, ok := s.piles[victim].Steal(); ok {
				s.metrics.TakeSteal.Inc(1)
				return g, true
			}
		}
	}
	s.metrics.TakeEmpty.Inc(1)
	return guid.Null, false
}

// Give pushes ALL_ACQUIRED tasks onto the worker's own pile.
func (s *HC) Give(worker int, handles []guid.GUID) []guid.GUID {
	pile := s.piles[s.index(worker)]
	s.push(pile, handles)
	return handles
}

// Submit pushes ALL_ACQUIRED tasks onto the inbox.
func (s *HC) Submit(handles []guid.GUID) []guid.GUID {
	s.push(s.inbox, handles)
	return handles
}

func (s *HC) push(pile workpile.Workpile, handles []guid.GUID) {
	for i, g := range handles {
		if g.IsNull() {
			continue
		}
		if !s.acquired(g) {
			s.metrics.GiveSkipped.Inc(1)
			continue
		}
		pile.Push(g)
		handles[i] = guid.Null
		s.metrics.GivePushed.Inc(1)
	}
}

// Role always reports RoleWorker.
func (s *HC) Role(worker int) Role {
	s.index(worker)
	return RoleWorker
}

// Unship is not supported by the homogeneous scheduler.
func (s *HC) Unship(int) []guid.GUID {
	panic("scheduler.hc: unship is not supported")
}

// Assign is not supported by the homogeneous scheduler.
func (s *HC) Assign(guid.GUID) {
	panic("scheduler.hc: assign is not supported")
}

// Pile exposes the pile of worker.
func (s *HC) Pile(worker int) workpile.Workpile {
	return s.piles[s.index(worker)]
}
