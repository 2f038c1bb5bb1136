// Package worker hosts the goroutines that run the policy domain's
// fetch/execute loop. Every worker repeatedly takes a handle from the
// scheduler and executes it; a worker that finds nothing spins briefly and
// then sleeps before trying again.
package worker
