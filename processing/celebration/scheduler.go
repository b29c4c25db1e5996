package celebration

import "sync"

// Scheduler runs tasks on the context that owns the visual tree. Do must be
// safe to call from any goroutine; tasks run one at a time, in order.
type Scheduler interface {
	Do(fn func())
}

type SchedulerFunc func(fn func())

func (f SchedulerFunc) Do(fn func()) { f(fn) }

// SerialScheduler is a single goroutine draining an unbounded task queue.
// It stands in for the UI thread when there is no window.
type SerialScheduler struct {
	mu    sync.Mutex
	tasks []func()

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewSerialScheduler() *SerialScheduler {
	s := &SerialScheduler{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *SerialScheduler) Do(fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *SerialScheduler) run() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			return
		}
	}
}

func (s *SerialScheduler) drain() {
	for {
		s.mu.Lock()
		tasks := s.tasks
		s.tasks = nil
		s.mu.Unlock()

		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			fn()
		}
	}
}

// Wait blocks until every task submitted before the call has run.
func (s *SerialScheduler) Wait() {
	ch := make(chan struct{})
	s.Do(func() { close(ch) })

	select {
	case <-ch:
	case <-s.done:
	}
}

// Close stops the loop. Tasks still queued are dropped.
func (s *SerialScheduler) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}
