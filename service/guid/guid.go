// Package guid provides the runtime naming service: opaque 64-bit handles that
// resolve to runtime objects.
package guid

import "fmt"

// GUID is an opaque runtime handle. The low bits carry the object kind.
type GUID uint64

// Null is the handle that refers to nothing.
const Null GUID = 0

const kindBits = 8

// Kind classifies the object a GUID refers to.
type Kind uint8

const (
	KindNone Kind = iota
	KindTask
	KindTemplate
	KindDataBlock
	KindMessage
	KindScheduler
	KindWorker
	KindAllocator
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindTemplate:
		return "template"
	case KindDataBlock:
		return "datablock"
	case KindMessage:
		return "message"
	case KindScheduler:
		return "scheduler"
	case KindWorker:
		return "worker"
	case KindAllocator:
		return "allocator"
	}
	return "none"
}

// New composes a GUID out of a sequence number and a kind.
func New(seq uint64, kind Kind) GUID {
	return GUID(seq<<kindBits | uint64(kind))
}

// Kind returns the kind encoded in g.
func (g GUID) Kind() Kind {
	return Kind(uint64(g) & (1<<kindBits - 1))
}

// IsNull reports whether g is the null handle.
func (g GUID) IsNull() bool {
	return g == Null
}

func (g GUID) String() string {
	if g == Null {
		return "NULL_GUID"
	}
	return fmt.Sprintf("%s:0x%x", g.Kind(), uint64(g)>>kindBits)
}
