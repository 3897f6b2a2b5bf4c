package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratesDistinctValidIDs(t *testing.T) {
	var g Generator = UUID{}
	a, b := g.NewID(), g.NewID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestSequence(t *testing.T) {
	s := NewSequence("c")
	assert.Equal(t, "c1", s.NewID())
	assert.Equal(t, "c2", s.NewID())
}

func TestFunc(t *testing.T) {
	var g Generator = Func(func() string { return "fixed" })
	assert.Equal(t, "fixed", g.NewID())
}
