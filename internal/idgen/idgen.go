package idgen

import "github.com/google/uuid"

// NewFunc produces a new globally unique identifier. Exposed as a variable so
// tests can substitute a deterministic generator.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new identifier via NewFunc.
func New() string { return NewFunc() }
