package workpile

import (
	"context"

	"github.com/viant/edt/model/runlevel"
)

// lifecycle gives a workpile guarded begin/start/stop/finish.
type lifecycle struct {
	runlevel.Guard
}

func (l *lifecycle) Begin(context.Context) error {
	l.Enter(runlevel.Begun)
	return nil
}

func (l *lifecycle) Start(context.Context) error {
	l.Enter(runlevel.Started)
	return nil
}

func (l *lifecycle) Stop(context.Context) error {
	l.Enter(runlevel.Stopped)
	return nil
}

func (l *lifecycle) Finish(context.Context) error {
	l.Enter(runlevel.Finished)
	return nil
}
