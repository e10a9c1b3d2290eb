package services

import (
	"sync"
	"sync/atomic"
)

// CompletionSignal is a process-wide flag raised the first time any job is
// saved. It never goes back to false. It only feeds notifications and is
// never consulted by the transformation path.
type CompletionSignal struct {
	raised      atomic.Bool
	mu          sync.Mutex
	subscribers []func()
}

// Raised reports whether a job has been saved.
func (s *CompletionSignal) Raised() bool {
	return s.raised.Load()
}

// Set raises the signal. Only the call that flips it notifies subscribers
// and returns true; later calls are no-ops.
func (s *CompletionSignal) Set() bool {
	if !s.raised.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
	return true
}

// Subscribe registers fn to run when the signal flips to true.
// Subscribing after the signal was raised has no effect.
func (s *CompletionSignal) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
