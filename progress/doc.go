// Package progress defines the task counters of a policy domain: how many
// tasks were created, are waiting to run, are running, and have completed or
// failed.
package progress
