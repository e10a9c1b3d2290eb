package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionSignal_RaisedOnce(t *testing.T) {
	var s CompletionSignal
	var calls int
	s.Subscribe(func() { calls++ })

	assert.False(t, s.Raised())
	assert.True(t, s.Set())
	assert.True(t, s.Raised())
	assert.False(t, s.Set())
	assert.True(t, s.Raised())
	assert.Equal(t, 1, calls)
}

func TestCompletionSignal_ConcurrentSet(t *testing.T) {
	var s CompletionSignal
	var winners, notified atomic.Int32
	s.Subscribe(func() { notified.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Set() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(1), notified.Load())
}
