// Package policy implements the policy domain: the administrative boundary
// that owns the GUID provider, memory target, allocator, scheduler and worker
// pool of one runtime instance, drives them through run-levels and exposes the
// task API that user code and workers call.
package policy
