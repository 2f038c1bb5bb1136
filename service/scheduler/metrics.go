package scheduler

import "github.com/uber-go/tally/v4"

// Metrics is a placeholder for all scheduler metrics.
type Metrics struct {
	TakePop        tally.Counter
	TakeSteal      tally.Counter
	TakeEmpty      tally.Counter
	GivePushed     tally.Counter
	GiveSkipped    tally.Counter
	MessageCreated tally.Counter
}

// NewMetrics returns a new instance of scheduler.Metrics.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	schedulerScope := scope.SubScope("scheduler")
	takeScope := schedulerScope.SubScope("take")
	giveScope := schedulerScope.SubScope("give")
	return &Metrics{
		TakePop:        takeScope.Counter("pop"),
		TakeSteal:      takeScope.Counter("steal"),
		TakeEmpty:      takeScope.Counter("empty"),
		GivePushed:     giveScope.Counter("pushed"),
		GiveSkipped:    giveScope.Counter("skipped"),
		MessageCreated: schedulerScope.Counter("message_created"),
	}
}
