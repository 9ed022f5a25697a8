package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smukkama/symptom-intel/internal/logger"
)

func newScheduler(t *testing.T, workers int) *Scheduler {
	t.Helper()
	s := NewScheduler(workers, logger.Nop())
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestScheduler_Schedule(t *testing.T) {
	s := newScheduler(t, 2)

	var executed atomic.Bool
	err := s.Schedule("test1", time.Now().Add(50*time.Millisecond), func(ctx context.Context) {
		executed.Store(true)
	})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if !executed.Load() {
		t.Error("Job was not executed")
	}
	if got := s.Stats().ScheduledJobs; got != 0 {
		t.Errorf("Expected one-shot job to be removed, %d still scheduled", got)
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := newScheduler(t, 2)

	var executed atomic.Bool
	if err := s.Schedule("test1", time.Now().Add(100*time.Millisecond), func(ctx context.Context) {
		executed.Store(true)
	}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if !s.Cancel("test1") {
		t.Error("Cancel returned false")
	}
	if s.Cancel("test1") {
		t.Error("Second cancel returned true")
	}

	time.Sleep(200 * time.Millisecond)

	if executed.Load() {
		t.Error("Job was executed despite being cancelled")
	}
}

func TestScheduler_Ordering(t *testing.T) {
	s := newScheduler(t, 1)

	var results []int
	var mu sync.Mutex
	record := func(n int) func(context.Context) {
		return func(ctx context.Context) {
			mu.Lock()
			results = append(results, n)
			mu.Unlock()
		}
	}

	now := time.Now()
	s.Schedule("job3", now.Add(150*time.Millisecond), record(3))
	s.Schedule("job1", now.Add(50*time.Millisecond), record(1))
	s.Schedule("job2", now.Add(100*time.Millisecond), record(2))

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0] != 1 || results[1] != 2 || results[2] != 3 {
		t.Errorf("Jobs executed in wrong order: %v", results)
	}
}

func TestScheduler_RescheduleReplaces(t *testing.T) {
	s := newScheduler(t, 2)

	var count atomic.Int64
	s.Schedule("test1", time.Now().Add(100*time.Millisecond), func(ctx context.Context) { count.Add(1) })
	s.Schedule("test1", time.Now().Add(50*time.Millisecond), func(ctx context.Context) { count.Add(10) })

	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 10 {
		t.Errorf("Expected count=10 (only second job), got %d", got)
	}
}

func TestScheduler_Every(t *testing.T) {
	s := newScheduler(t, 2)

	var runs atomic.Int64
	if err := s.Every("tick", 20*time.Millisecond, func(ctx context.Context) { runs.Add(1) }); err != nil {
		t.Fatalf("Every failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	s.Cancel("tick")
	seen := runs.Load()
	if seen < 3 {
		t.Errorf("Expected at least 3 runs, got %d", seen)
	}

	time.Sleep(60 * time.Millisecond)
	if runs.Load() > seen+1 {
		t.Errorf("Job kept running after cancel: %d -> %d", seen, runs.Load())
	}
}

func TestScheduler_EverySkipsOverlappingRuns(t *testing.T) {
	s := newScheduler(t, 4)

	var active, maxActive atomic.Int64
	s.Every("slow", 10*time.Millisecond, func(ctx context.Context) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		active.Add(-1)
	})

	time.Sleep(200 * time.Millisecond)

	if got := maxActive.Load(); got != 1 {
		t.Errorf("Expected runs to never overlap, saw %d concurrent", got)
	}
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := NewScheduler(1, logger.Nop())
	s.Start()

	started := make(chan struct{})
	var cancelled atomic.Bool
	s.Schedule("long", time.Now(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})

	<-started
	s.Stop()

	if !cancelled.Load() {
		t.Error("Expected job context to be cancelled on Stop")
	}
	if err := s.Schedule("late", time.Now(), func(ctx context.Context) {}); err != ErrSchedulerStopped {
		t.Errorf("Expected ErrSchedulerStopped, got %v", err)
	}
}

func TestScheduler_PanicDoesNotKillWorker(t *testing.T) {
	s := newScheduler(t, 1)

	s.Schedule("boom", time.Now(), func(ctx context.Context) { panic("boom") })
	var ran atomic.Bool
	s.Schedule("after", time.Now().Add(30*time.Millisecond), func(ctx context.Context) { ran.Store(true) })

	time.Sleep(150 * time.Millisecond)

	if !ran.Load() {
		t.Error("Worker did not survive a panicking job")
	}
	if got := s.Stats().Executed; got != 2 {
		t.Errorf("Expected 2 executed jobs, got %d", got)
	}
}

func TestScheduler_Stats(t *testing.T) {
	s := newScheduler(t, 5)

	s.Schedule("job1", time.Now().Add(time.Hour), func(ctx context.Context) {})
	s.Schedule("job2", time.Now().Add(2*time.Hour), func(ctx context.Context) {})
	s.Every("job3", time.Hour, func(ctx context.Context) {})

	stats := s.Stats()
	if stats.ScheduledJobs != 3 {
		t.Errorf("Expected 3 scheduled jobs, got %d", stats.ScheduledJobs)
	}
	if stats.Workers != 5 {
		t.Errorf("Expected 5 workers, got %d", stats.Workers)
	}
}
