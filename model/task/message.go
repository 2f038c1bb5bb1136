package task

import "github.com/viant/edt/service/guid"

// MessageType identifies a runtime control message.
type MessageType int

const (
	// PickMyWorkUp asks a controller to collect work an executor buffered in
	// its shipping pile.
	PickMyWorkUp MessageType = iota + 1
)

func (t MessageType) String() string {
	if t == PickMyWorkUp {
		return "PICK_MY_WORK_UP"
	}
	return "UNKNOWN"
}

// Message is an internal control message scheduled like a task.
type Message struct {
	GUID guid.GUID
	Type MessageType
	// From is the id of the worker that created the message.
	From int
}

// IsMessage reports whether g names a control message rather than user work.
func IsMessage(g guid.GUID) bool {
	return g.Kind() == guid.KindMessage
}
