// Package tracing wraps OpenTelemetry so the runtime can put a span around
// every task execution without importing the SDK everywhere. Tracing is off
// unless Init or InitWithExporter is called.
package tracing
