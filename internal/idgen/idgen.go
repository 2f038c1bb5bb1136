package idgen

import "github.com/google/uuid"

// NewFunc produces domain identifiers; tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new domain identifier.
func New() string { return NewFunc() }
