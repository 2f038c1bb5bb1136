// Package spinlock provides a compare-and-swap busy-wait lock.
package spinlock

import (
	"runtime"

	"go.uber.org/atomic"
)

// spinsBeforeYield bounds pure spinning before the goroutine yields its P.
const spinsBeforeYield = 64

// Lock is a CAS spinlock. The zero value is unlocked. It never parks the
// goroutine; after a bounded number of spins it yields with runtime.Gosched.
type Lock struct {
	state atomic.Uint32
}

// Lock acquires the lock.
func (l *Lock) Lock() {
	spins := 0
	for !l.state.CompareAndSwap(0, 1) {
		spins++
		if spins%spinsBeforeYield == 0 {
			runtime.Gosched()
		}
	}
}

// TryLock acquires the lock if it is free.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking an unlocked Lock panics.
func (l *Lock) Unlock() {
	if !l.state.CompareAndSwap(1, 0) {
		panic("spinlock: unlock of unlocked lock")
	}
}
