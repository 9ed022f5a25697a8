// Package timer runs one-shot and periodic jobs off a min-heap, executing
// them on a fixed worker pool.
package timer

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smukkama/symptom-intel/internal/logger"
)

var ErrSchedulerStopped = errors.New("scheduler is stopped")

// Scheduler manages scheduled jobs using a min-heap
type Scheduler struct {
	heap     taskHeap
	mu       sync.Mutex
	wakeup   chan struct{}
	tasks    map[string]*task // for O(1) lookup by ID
	jobs     chan *task
	workers  int
	workerWg sync.WaitGroup
	executed int64
	stopped  bool
	stopCh   chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	log      *logger.Logger
}

// NewScheduler creates a scheduler backed by workers goroutines
func NewScheduler(workers int, log *logger.Logger) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		heap:    make(taskHeap, 0),
		wakeup:  make(chan struct{}, 1),
		tasks:   make(map[string]*task),
		jobs:    make(chan *task),
		workers: workers,
		stopCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
	heap.Init(&s.heap)
	return s
}

// Start starts the worker pool and the scheduling loop
func (s *Scheduler) Start() {
	for i := 0; i < s.workers; i++ {
		s.workerWg.Add(1)
		go s.worker()
	}
	go s.run()
}

// Stop cancels the context handed to running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.cancel()
	s.workerWg.Wait()
}

// Schedule runs fn once at runAt, replacing any job with the same id
func (s *Scheduler) Schedule(id string, runAt time.Time, fn func(ctx context.Context)) error {
	return s.add(id, runAt, 0, fn)
}

// Every runs fn every interval, first after one interval has elapsed.
// A run is skipped while the previous one is still in progress.
func (s *Scheduler) Every(id string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	return s.add(id, time.Now().Add(interval), interval, fn)
}

func (s *Scheduler) add(id string, runAt time.Time, every time.Duration, fn func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if existing, ok := s.tasks[id]; ok {
		if existing.index >= 0 {
			heap.Remove(&s.heap, existing.index)
		}
		delete(s.tasks, id)
	}

	t := &task{
		id:    id,
		runAt: runAt,
		every: every,
		run:   func() { fn(s.ctx) },
	}
	heap.Push(&s.heap, t)
	s.tasks[id] = t

	// Wake up the loop if this is the earliest job
	if s.heap[0] == t {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}
	return nil
}

// Cancel removes a scheduled job
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	if t.index >= 0 {
		heap.Remove(&s.heap, t.index)
	}
	delete(s.tasks, id)
	return true
}

// run is the main scheduling loop
func (s *Scheduler) run() {
	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}

		var due *task
		waitDuration := 24 * time.Hour
		if s.heap.Len() > 0 {
			next := s.heap[0]
			waitDuration = time.Until(next.runAt)
			if waitDuration <= 0 {
				heap.Pop(&s.heap)
				if next.every > 0 {
					next.runAt = time.Now().Add(next.every)
					heap.Push(&s.heap, next)
				} else {
					delete(s.tasks, next.id)
				}
				if !next.running {
					next.running = true
					due = next
				}
			}
		}
		s.mu.Unlock()

		if due != nil {
			select {
			case s.jobs <- due:
			case <-s.stopCh:
				return
			}
			continue
		}
		if waitDuration <= 0 {
			continue
		}

		timer := time.NewTimer(waitDuration)
		select {
		case <-timer.C:
		case <-s.wakeup:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) worker() {
	defer s.workerWg.Done()

	for {
		select {
		case t := <-s.jobs:
			s.execute(t)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) execute(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", "job", t.id, "panic", r)
		}
		s.mu.Lock()
		t.running = false
		s.executed++
		s.mu.Unlock()
	}()
	t.run()
}

// Stats returns statistics about the scheduler
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		ScheduledJobs: len(s.tasks),
		Workers:       s.workers,
		Executed:      s.executed,
	}
}

type Stats struct {
	ScheduledJobs int
	Workers       int
	Executed      int64
}
