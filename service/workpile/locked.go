package workpile

import (
	"github.com/sirupsen/logrus"

	"github.com/viant/edt/internal/spinlock"
	"github.com/viant/edt/service/guid"
)

// Locked is a spinlock protected deque. Unlike Deque it tolerates pushes and
// pops from several goroutines.
type Locked struct {
	lifecycle
	lock  spinlock.Lock
	items []guid.GUID
	head  int
	count int
}

var _ Workpile = (*Locked)(nil)

// NewLocked creates an empty locked deque.
func NewLocked(name string, capacity int, logger logrus.FieldLogger) *Locked {
	if capacity < 2 {
		capacity = 2
	}
	l := &Locked{items: make([]guid.GUID, capacity)}
	l.Guard.Name = "workpile.locked." + name
	l.Guard.Logger = logger
	return l
}

// Push adds g at the hot end.
func (l *Locked) Push(g guid.GUID) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.count == len(l.items) {
		items := make([]guid.GUID, 2*len(l.items))
		for i := 0; i < l.count; i++ {
			items[i] = l.items[(l.head+i)%len(l.items)]
		}
		l.items, l.head = items, 0
	}
	l.items[(l.head+l.count)%len(l.items)] = g
	l.count++
}

// Pop removes the most recently pushed handle.
func (l *Locked) Pop() (guid.GUID, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.count == 0 {
		return guid.Null, false
	}
	l.count--
	i := (l.head + l.count) % len(l.items)
	g := l.items[i]
	l.items[i] = guid.Null
	return g, true
}

// Steal removes the oldest handle.
func (l *Locked) Steal() (guid.GUID, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.count == 0 {
		return guid.Null, false
	}
	g := l.items[l.head]
	l.items[l.head] = guid.Null
	l.head = (l.head + 1) % len(l.items)
	l.count--
	return g, true
}

// Len returns the number of handles.
func (l *Locked) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.count
}
