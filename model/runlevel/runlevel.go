// Package runlevel defines the coarse lifecycle the runtime moves through and
// the per-module stages (begin, start, stop, finish) driven by it.
package runlevel

import "fmt"

// Level is a runtime-wide lifecycle stage.
type Level int

const (
	ConfigParse Level = iota
	NetworkOK
	PDOK
	GUIDOK
	MemoryOK
	ComputeOK
	UserOK
)

// Levels lists every level in bring-up order.
var Levels = []Level{ConfigParse, NetworkOK, PDOK, GUIDOK, MemoryOK, ComputeOK, UserOK}

func (l Level) String() string {
	switch l {
	case ConfigParse:
		return "CONFIG_PARSE"
	case NetworkOK:
		return "NETWORK_OK"
	case PDOK:
		return "PD_OK"
	case GUIDOK:
		return "GUID_OK"
	case MemoryOK:
		return "MEMORY_OK"
	case ComputeOK:
		return "COMPUTE_OK"
	case UserOK:
		return "USER_OK"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l >= ConfigParse && l <= UserOK
}

// Phase tells whether a transition brings the runtime up or tears it down.
type Phase int

const (
	BringUp Phase = iota
	TearDown
)

func (p Phase) String() string {
	if p == TearDown {
		return "tear-down"
	}
	return "bring-up"
}
