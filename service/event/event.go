// Package event delivers runtime notifications, such as a task being reaped or
// the domain changing run-level, to asynchronous listeners.
package event

import (
	"time"

	"github.com/viant/edt/service/guid"
)

// Type names an event.
type Type string

const (
	TaskReaped      Type = "taskReaped"
	TaskFailed      Type = "taskFailed"
	RunlevelChanged Type = "runlevelChanged"
)

type Context struct {
	Domain      string    `json:"domain"`
	EventType   Type      `json:"eventType"`
	Worker      int       `json:"worker"`
	GUID        guid.GUID `json:"guid"`
	TimeTakenMs int       `json:"timeTakenMs"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
