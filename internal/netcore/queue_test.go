package netcore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_LIFOOrder(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	require.Equal(t, 3, s.Size())
	assert.Equal(t, 3, s.Pop())
	assert.Equal(t, 2, s.Pop())
	assert.Equal(t, 1, s.Pop())
	assert.True(t, s.Empty())
}

func TestStack_DrainLockedPreservesPopOrder(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	s.Lock()
	drained := s.DrainLocked()
	s.Unlock()

	assert.Equal(t, []int{3, 2, 1}, drained)
	assert.True(t, s.Empty())
}

func TestStack_ConcurrentPushPop(t *testing.T) {
	s := NewStack[int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Push(n)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, s.Size())

	count := 0
	for !s.Empty() {
		s.Pop()
		count++
	}
	assert.Equal(t, 100, count)
}
