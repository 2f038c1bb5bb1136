// Package idgen generates policy domain identifiers. Identifiers are opaque
// strings used in log fields, metric tags and events.
package idgen
