// Package idgen hands out the trace identifiers attached to kernel messages.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// ID identifies one kernel message for tracing. Zero is never generated.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Generator produces unique identifiers. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first ID is 1.
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	last atomic.Uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(g.last.Add(1))
}
