// Package rangetracker keeps a tagged partition of an address range. Every
// address in [minimum, maximum) belongs to exactly one interval and each
// interval carries a tag. Intervals are stored as boundaries in an AVL tree
// keyed by start address; boundaries of the same tag are threaded on a list
// so that all regions of a tag can be enumerated.
package rangetracker

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/viant/edt/internal/spinlock"
)

// Tag classifies a memory region.
type Tag int

const (
	Reserved Tag = iota
	NonUser
	UserFree
	UserUsed
	maxTag
)

func (t Tag) String() string {
	switch t {
	case Reserved:
		return "RESERVED"
	case NonUser:
		return "NON_USER"
	case UserFree:
		return "USER_FREE"
	case UserUsed:
		return "USER_USED"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	return t >= Reserved && t < maxTag
}

var (
	// ErrOutOfRange is returned for addresses outside [minimum, maximum).
	ErrOutOfRange = errors.New("rangetracker: address out of range")
	// ErrInvalidTag is returned for unknown tags.
	ErrInvalidTag = errors.New("rangetracker: invalid tag")
	// ErrTooManySplits is returned when a split would exceed the boundary budget.
	ErrTooManySplits = errors.New("rangetracker: too many splits")
)

// Region is one tagged interval [Start, End).
type Region struct {
	Start uint64
	End   uint64
	Tag   Tag
}

// Cursor is the opaque position of a GetRegionWithTag iteration. The zero
// value starts from the beginning.
type Cursor uint64

// Tracker is a tagged interval map. All operations are serialized by a
// spinlock.
type Tracker struct {
	lock      spinlock.Lock
	minimum   uint64
	maximum   uint64
	maxSplits int
	count     int
	root      *node
	heads     [maxTag]*node
}

// New creates a tracker covering [minimum, maximum) tagged with tag. At most
// maxSplits boundaries are kept.
func New(minimum, maximum uint64, tag Tag, maxSplits int) (*Tracker, error) {
	if minimum >= maximum {
		return nil, errors.Errorf("rangetracker: empty range [0x%x, 0x%x)", minimum, maximum)
	}
	if !tag.Valid() {
		return nil, errors.Wrapf(ErrInvalidTag, "tag %d", int(tag))
	}
	if maxSplits < 1 {
		return nil, errors.Errorf("rangetracker: maxSplits must be > 0, got %d", maxSplits)
	}
	t := &Tracker{minimum: minimum, maximum: maximum, maxSplits: maxSplits}
	t.insert(minimum, tag)
	return t, nil
}

// Minimum returns the first tracked address.
func (t *Tracker) Minimum() uint64 { return t.minimum }

// Maximum returns the address right after the tracked range.
func (t *Tracker) Maximum() uint64 { return t.maximum }

// SplitRange tags [start, start+size) with tag. The interval right after the
// span keeps the tag it had before the call.
func (t *Tracker) SplitRange(start, size uint64, tag Tag) error {
	if !tag.Valid() {
		return errors.Wrapf(ErrInvalidTag, "tag %d", int(tag))
	}
	end := start + size
	if size == 0 || start < t.minimum || end > t.maximum || end < start {
		return errors.Wrapf(ErrOutOfRange, "split [0x%x, 0x%x)", start, end)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.count+2 > t.maxSplits {
		return errors.Wrapf(ErrTooManySplits, "split [0x%x, 0x%x) with %d boundaries", start, end, t.count)
	}
	endTag := Tag(-1)
	for {
		v := avlFloor(t.root, end)
		if v == nil {
			break
		}
		if endTag < 0 {
			endTag = v.tag
		}
		if v.key < start {
			break
		}
		t.remove(v)
	}
	t.insert(start, tag)
	if end < t.maximum {
		t.insert(end, endTag)
	}
	return nil
}

// GetTag returns the tag and bounds of the interval containing addr.
func (t *Tracker) GetTag(addr uint64) (Tag, uint64, uint64, error) {
	if addr < t.minimum || addr >= t.maximum {
		return 0, 0, 0, errors.Wrapf(ErrOutOfRange, "address 0x%x", addr)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	lower := avlFloor(t.root, addr)
	if lower == nil {
		panic(fmt.Sprintf("rangetracker: no boundary at or below 0x%x", addr))
	}
	return lower.tag, lower.key, t.endOf(lower.key), nil
}

// GetRegionWithTag returns the next region carrying tag after the cursor
// position and advances the cursor. It reports false when exhausted. The
// iteration reflects the intervals present at each call; callers that mutate
// the tracker between calls should restart with a zero cursor.
func (t *Tracker) GetRegionWithTag(tag Tag, cursor *Cursor) (uint64, uint64, bool) {
	if !tag.Valid() || cursor == nil {
		return 0, 0, false
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	n := t.heads[tag]
	for i := Cursor(0); n != nil && i < *cursor; i++ {
		n = n.nextTag
	}
	if n == nil {
		return 0, 0, false
	}
	*cursor++
	return n.key, t.endOf(n.key), true
}

// Regions returns the whole partition in address order.
func (t *Tracker) Regions() []Region {
	t.lock.Lock()
	defer t.lock.Unlock()
	var result []Region
	avlWalk(t.root, func(n *node) {
		result = append(result, Region{Start: n.key, End: t.endOf(n.key), Tag: n.tag})
	})
	return result
}

// Boundaries returns the number of interval boundaries.
func (t *Tracker) Boundaries() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.count
}

// Dump renders the partition, one interval per line.
func (t *Tracker) Dump() string {
	var b strings.Builder
	for _, r := range t.Regions() {
		fmt.Fprintf(&b, "[0x%x, 0x%x) %s\n", r.Start, r.End, r.Tag)
	}
	return b.String()
}

func (t *Tracker) endOf(key uint64) uint64 {
	if upper := avlHigher(t.root, key); upper != nil {
		return upper.key
	}
	return t.maximum
}

func (t *Tracker) insert(key uint64, tag Tag) {
	if n := avlFind(t.root, key); n != nil {
		t.unlink(n)
		n.tag = tag
		t.link(n)
		return
	}
	n := &node{key: key, tag: tag}
	t.root = avlInsert(t.root, n)
	t.link(n)
	t.count++
}

func (t *Tracker) remove(n *node) {
	t.unlink(n)
	t.root = avlDelete(t.root, n.key, func(from, to *node) {
		t.unlink(from)
		to.key, to.tag = from.key, from.tag
		t.link(to)
	})
	t.count--
}

func (t *Tracker) link(n *node) {
	n.prevTag = nil
	n.nextTag = t.heads[n.tag]
	if n.nextTag != nil {
		n.nextTag.prevTag = n
	}
	t.heads[n.tag] = n
}

func (t *Tracker) unlink(n *node) {
	if n.prevTag != nil {
		n.prevTag.nextTag = n.nextTag
	} else {
		t.heads[n.tag] = n.nextTag
	}
	if n.nextTag != nil {
		n.nextTag.prevTag = n.prevTag
	}
	n.prevTag, n.nextTag = nil, nil
}
