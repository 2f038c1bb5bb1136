package worker

import "github.com/uber-go/tally/v4"

// Metrics is a placeholder for all worker metrics.
type Metrics struct {
	Executed tally.Counter
	Failed   tally.Counter
	Idle     tally.Counter
}

// NewMetrics returns a new instance of worker.Metrics.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	workerScope := scope.SubScope("worker")
	return &Metrics{
		Executed: workerScope.Counter("executed"),
		Failed:   workerScope.Counter("failed"),
		Idle:     workerScope.Counter("idle"),
	}
}
