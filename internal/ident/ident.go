// Package ident generates opaque identifiers for customers, sales and line items.
package ident

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces globally unique opaque string ids.
type Generator interface {
	NewID() string
}

// UUID generates random (v4) UUID strings.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.New().String()
}

// Sequence generates prefix-numbered ids ("c1", "c2", ...). Useful in tests
// where ids must be predictable.
type Sequence struct {
	prefix string
	n      atomic.Int64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return s.prefix + strconv.FormatInt(s.n.Add(1), 10)
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }
