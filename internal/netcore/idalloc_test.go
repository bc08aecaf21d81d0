package netcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnIDAllocator_MonotonicFromOne(t *testing.T) {
	a := newConnIDAllocator()

	first, err := a.allocate()
	require.NoError(t, err)
	assert.Equal(t, ConnectionID(1), first)

	second, err := a.allocate()
	require.NoError(t, err)
	assert.Equal(t, ConnectionID(2), second)
}

func TestConnIDAllocator_ExhaustionAtMax(t *testing.T) {
	a := &connIDAllocator{next: ^ConnectionID(0)}

	last, err := a.allocate()
	require.NoError(t, err)
	assert.Equal(t, ^ConnectionID(0), last)

	_, err = a.allocate()
	assert.ErrorIs(t, err, ErrConnectionIDSpaceExhausted)

	// Exhaustion is sticky.
	_, err = a.allocate()
	assert.ErrorIs(t, err, ErrConnectionIDSpaceExhausted)
}
