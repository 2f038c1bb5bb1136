package allocator

import "github.com/uber-go/tally/v4"

// Metrics counts allocator traffic.
type Metrics struct {
	Alloc       tally.Counter
	AllocBytes  tally.Counter
	Free        tally.Counter
	OutOfMemory tally.Counter
	BadFree     tally.Counter
}

// NewMetrics returns a new instance of allocator.Metrics.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	allocScope := scope.SubScope("allocator")
	return &Metrics{
		Alloc:       allocScope.Counter("alloc"),
		AllocBytes:  allocScope.Counter("alloc_bytes"),
		Free:        allocScope.Counter("free"),
		OutOfMemory: allocScope.Counter("oom"),
		BadFree:     allocScope.Counter("bad_free"),
	}
}
