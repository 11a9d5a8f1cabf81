package internal

import "sync/atomic"

// Scheduler gates the per-frame work of the ui goroutine.
type Scheduler struct {
	// incremented after each frame, used to stamp commits
	clock int

	// set by the producer when a batch closes, cleared when a frame runs
	scheduled atomic.Bool

	// guards against a frame started from inside a frame (ui blocks, listeners)
	running bool

	// host hook asking the ui goroutine for a frame
	request func()
}

func NewScheduler(request func()) *Scheduler {
	return &Scheduler{request: request}
}

// Schedule is called from the producer side after a batch was closed.
func (s *Scheduler) Schedule() {
	s.scheduled.Store(true)
	if s.request != nil {
		s.request()
	}
}

// Scheduled reports whether a batch arrived since the last frame.
func (s *Scheduler) Scheduled() bool {
	return s.scheduled.Load()
}

// Run executes fn as one frame. Nested calls are ignored and report false.
func (s *Scheduler) Run(fn func()) bool {
	if s.running {
		return false
	}

	s.scheduled.Store(false)
	s.running = true
	defer func() {
		s.clock++
		s.running = false
	}()

	fn()
	return true
}

func (s *Scheduler) Time() int {
	return s.clock
}
