package workpile

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/viant/edt/service/guid"
)

// Deque is a Chase-Lev work-stealing deque. Push and Pop must only be called
// by the owner; Steal may be called by any number of thieves.
type Deque struct {
	lifecycle
	top    atomic.Int64
	bottom atomic.Int64
	ring   atomic.Pointer[ring]
}

var _ Workpile = (*Deque)(nil)

// ring is a power of two circular buffer. A ring is never shrunk or reused
// after being replaced, so thieves holding a stale ring read valid slots.
type ring struct {
	mask  int64
	slots []atomic.Uint64
}

func newRing(capacity int64) *ring {
	size := int64(2)
	for size < capacity {
		size <<= 1
	}
	return &ring{mask: size - 1, slots: make([]atomic.Uint64, size)}
}

func (r *ring) capacity() int64 {
	return r.mask + 1
}

func (r *ring) get(i int64) guid.GUID {
	return guid.GUID(r.slots[i&r.mask].Load())
}

func (r *ring) put(i int64, g guid.GUID) {
	r.slots[i&r.mask].Store(uint64(g))
}

func (r *ring) grow(bottom, top int64) *ring {
	next := newRing(r.capacity() * 2)
	for i := top; i < bottom; i++ {
		next.put(i, r.get(i))
	}
	return next
}

// NewDeque creates an empty deque with room for capacity handles.
func NewDeque(name string, capacity int, logger logrus.FieldLogger) *Deque {
	d := &Deque{}
	d.ring.Store(newRing(int64(capacity)))
	d.Guard.Name = "workpile.deque." + name
	d.Guard.Logger = logger
	return d
}

// Push adds g at the bottom.
func (d *Deque) Push(g guid.GUID) {
	bottom := d.bottom.Load()
	top := d.top.Load()
	r := d.ring.Load()
	if bottom-top >= r.capacity()-1 {
		r = r.grow(bottom, top)
		d.ring.Store(r)
	}
	r.put(bottom, g)
	d.bottom.Store(bottom + 1)
}

// Pop removes the handle at the bottom.
func (d *Deque) Pop() (guid.GUID, bool) {
	bottom := d.bottom.Load() - 1
	r := d.ring.Load()
	d.bottom.Store(bottom)
	top := d.top.Load()
	if top > bottom {
		d.bottom.Store(bottom + 1)
		return guid.Null, false
	}
	g := r.get(bottom)
	if top == bottom {
		won := d.top.CompareAndSwap(top, top+1)
		d.bottom.Store(bottom + 1)
		if !won {
			return guid.Null, false
		}
	}
	return g, true
}

// Steal removes the handle at the top.
func (d *Deque) Steal() (guid.GUID, bool) {
	top := d.top.Load()
	bottom := d.bottom.Load()
	if top >= bottom {
		return guid.Null, false
	}
	g := d.ring.Load().get(top)
	if !d.top.CompareAndSwap(top, top+1) {
		return guid.Null, false
	}
	return g, true
}

// Len returns bottom - top.
func (d *Deque) Len() int {
	n := d.bottom.Load() - d.top.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
