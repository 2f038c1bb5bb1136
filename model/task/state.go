package task

// State is the position of a task in its dependency resolution lifecycle.
// States only ever move forward.
type State int32

const (
	Created State = iota + 1
	AllDepsAdded
	PartialSat
	AllSat
	AllAcquired
	Running
	Reaping
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case AllDepsAdded:
		return "ALL_DEPS_ADDED"
	case PartialSat:
		return "PARTIAL_SAT"
	case AllSat:
		return "ALL_SAT"
	case AllAcquired:
		return "ALL_ACQUIRED"
	case Running:
		return "RUNNING"
	case Reaping:
		return "REAPING"
	}
	return "UNKNOWN"
}

// Mode is the access mode a task requests on a dependency.
type Mode uint8

const (
	ModeNone Mode = iota
	// ModeRO requests read-only access.
	ModeRO
	// ModeEW requests exclusive write access.
	ModeEW
)

func (m Mode) String() string {
	switch m {
	case ModeRO:
		return "RO"
	case ModeEW:
		return "EW"
	}
	return "NONE"
}
