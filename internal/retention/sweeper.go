// Package retention keeps the report store bounded and re-runs outbreak
// detection for every known location on a schedule.
package retention

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/store"
	"github.com/smukkama/symptom-intel/internal/timer"
)

const (
	compactJob    = "retention.compact"
	reevaluateJob = "retention.reevaluate"
)

// Evaluator runs outbreak detection for one location
type Evaluator interface {
	Evaluate(ctx context.Context, location string) ([]*model.OutbreakRecord, error)
}

// Sweeper compacts reports older than the retention window
type Sweeper struct {
	reports   store.ReportStore
	evaluator Evaluator
	window    time.Duration
	parallel  int
	log       *logger.Logger
	now       func() time.Time
}

// NewSweeper keeps reports for window, which should be the catalog's
// broadest detection window so compaction never changes a detection result.
func NewSweeper(reports store.ReportStore, evaluator Evaluator, window time.Duration, parallel int, log *logger.Logger) *Sweeper {
	if parallel <= 0 {
		parallel = 1
	}
	return &Sweeper{
		reports:   reports,
		evaluator: evaluator,
		window:    window,
		parallel:  parallel,
		log:       log,
		now:       time.Now,
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Compact drops every report at or before now minus the window
func (s *Sweeper) Compact(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.window)
	removed, err := s.reports.Compact(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to compact reports: %w", err)
	}
	s.log.Info("reports compacted", "removed", removed, "cutoff", cutoff)
	return removed, nil
}

// Reevaluate runs detection for every location with stored reports and
// returns how many outbreaks it created. A failing location does not stop
// the others; the first error is returned once all have run.
func (s *Sweeper) Reevaluate(ctx context.Context) (int, error) {
	locations, err := s.reports.Locations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list locations: %w", err)
	}

	var (
		g       errgroup.Group
		created atomic.Int64
		failed  atomic.Int64
	)
	g.SetLimit(s.parallel)
	for _, loc := range locations {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			records, err := s.evaluator.Evaluate(ctx, loc)
			created.Add(int64(len(records)))
			if err != nil {
				failed.Add(1)
				s.log.Error("re-evaluation failed", "location", loc, "error", err)
				return fmt.Errorf("re-evaluate %s: %w", loc, err)
			}
			return nil
		})
	}
	err = g.Wait()

	s.log.Info("re-evaluation finished",
		"locations", len(locations),
		"created", created.Load(),
		"failed", failed.Load())
	return int(created.Load()), err
}

// Register installs the periodic compaction and re-evaluation jobs
func (s *Sweeper) Register(sched *timer.Scheduler, sweepEvery, reevaluateEvery time.Duration) error {
	if err := sched.Every(compactJob, sweepEvery, func(ctx context.Context) {
		if _, err := s.Compact(ctx); err != nil {
			s.log.Error("retention sweep failed", "window", s.window, "error", err)
		}
	}); err != nil {
		return err
	}
	return sched.Every(reevaluateJob, reevaluateEvery, func(ctx context.Context) {
		_, _ = s.Reevaluate(ctx)
	})
}
