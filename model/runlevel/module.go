package runlevel

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Stage is the lifecycle position of a single module.
type Stage int32

const (
	Created Stage = iota
	Begun
	Started
	Stopped
	Finished
)

func (s Stage) String() string {
	switch s {
	case Created:
		return "created"
	case Begun:
		return "begun"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Module is implemented by every runtime component that takes part in the
// lifecycle.
type Module interface {
	Begin(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Finish(ctx context.Context) error
}

// Guard tracks a module stage and rejects requests that would move it
// backwards.
type Guard struct {
	Name   string
	Logger logrus.FieldLogger
	stage  atomic.Int32
}

// Stage returns the current stage.
func (g *Guard) Stage() Stage {
	return Stage(g.stage.Load())
}

// Enter moves the guard to stage. A request for a stage that is not above
// the current one is logged and rejected.
func (g *Guard) Enter(stage Stage) bool {
	for {
		current := g.stage.Load()
		if int32(stage) <= current {
			g.logger().WithFields(logrus.Fields{
				"module":  g.Name,
				"current": Stage(current).String(),
				"request": stage.String(),
			}).Warn("rejected lifecycle transition")
			return false
		}
		if g.stage.CompareAndSwap(current, int32(stage)) {
			g.logger().WithFields(logrus.Fields{
				"module": g.Name,
				"stage":  stage.String(),
			}).Debug("lifecycle transition")
			return true
		}
	}
}

// Running reports whether the module has started and not yet stopped.
func (g *Guard) Running() bool {
	return g.Stage() == Started
}

func (g *Guard) logger() logrus.FieldLogger {
	if g.Logger == nil {
		return logrus.StandardLogger()
	}
	return g.Logger
}

// Up applies stage to modules in order. Only Begun and Started are valid.
func Up(ctx context.Context, stage Stage, modules ...Module) error {
	for i, m := range modules {
		var err error
		switch stage {
		case Begun:
			err = m.Begin(ctx)
		case Started:
			err = m.Start(ctx)
		default:
			return errors.Errorf("runlevel: %v is not a bring-up stage", stage)
		}
		if err != nil {
			return errors.Wrapf(err, "module %d failed to reach %v", i, stage)
		}
	}
	return nil
}

// Down applies stage to modules in reverse order. Only Stopped and Finished
// are valid.
func Down(ctx context.Context, stage Stage, modules ...Module) error {
	for i := len(modules) - 1; i >= 0; i-- {
		var err error
		switch stage {
		case Stopped:
			err = modules[i].Stop(ctx)
		case Finished:
			err = modules[i].Finish(ctx)
		default:
			return errors.Errorf("runlevel: %v is not a tear-down stage", stage)
		}
		if err != nil {
			return errors.Wrapf(err, "module %d failed to reach %v", i, stage)
		}
	}
	return nil
}
