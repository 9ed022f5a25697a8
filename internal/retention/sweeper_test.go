package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/store/memory"
	"github.com/smukkama/symptom-intel/internal/timer"
)

var testNow = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

type fakeEvaluator struct {
	mu     sync.Mutex
	seen   []string
	failOn string
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, location string) ([]*model.OutbreakRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, location)
	if location == e.failOn {
		return nil, errors.New("registry unavailable")
	}
	return []*model.OutbreakRecord{{ID: "o-" + location, Location: location}}, nil
}

// failingReports is a report store whose compaction always fails
type failingReports struct {
	*memory.ReportStore
}

func (failingReports) Compact(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, errors.New("disk full")
}

func seed(t *testing.T, reports *memory.ReportStore, location string, ages ...time.Duration) {
	t.Helper()
	for i, age := range ages {
		require.NoError(t, reports.Append(context.Background(), &model.Report{
			ID:        fmt.Sprintf("%s-%d", location, i),
			Location:  location,
			Symptoms:  []string{"fever"},
			CreatedAt: testNow.Add(-age),
		}))
	}
}

func TestCompactKeepsReportsInsideWindow(t *testing.T) {
	reports := memory.NewReportStore()
	week := 7 * 24 * time.Hour
	seed(t, reports, "Guwahati", time.Hour, week, week+time.Hour)
	seed(t, reports, "Pune", week-time.Millisecond)

	s := NewSweeper(reports, &fakeEvaluator{}, week, 2, logger.Nop()).WithClock(func() time.Time { return testNow })

	removed, err := s.Compact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := reports.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReevaluateVisitsEveryLocation(t *testing.T) {
	reports := memory.NewReportStore()
	seed(t, reports, "Guwahati", time.Hour)
	seed(t, reports, "Silchar", time.Hour)
	seed(t, reports, "Pune", time.Hour)

	eval := &fakeEvaluator{}
	s := NewSweeper(reports, eval, 24*time.Hour, 2, logger.Nop())

	created, err := s.Reevaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.ElementsMatch(t, []string{"Guwahati", "Silchar", "Pune"}, eval.seen)
}

func TestReevaluateContinuesPastFailure(t *testing.T) {
	reports := memory.NewReportStore()
	seed(t, reports, "Guwahati", time.Hour)
	seed(t, reports, "Silchar", time.Hour)

	eval := &fakeEvaluator{failOn: "Guwahati"}
	s := NewSweeper(reports, eval, 24*time.Hour, 1, logger.Nop())

	created, err := s.Reevaluate(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, eval.seen, 2)
}

func TestRegisterSchedulesBothJobs(t *testing.T) {
	sched := timer.NewScheduler(2, logger.Nop())
	sched.Start()
	defer sched.Stop()

	reports := memory.NewReportStore()
	seed(t, reports, "Guwahati", time.Minute)
	eval := &fakeEvaluator{}

	s := NewSweeper(reports, eval, time.Hour, 1, logger.Nop())
	require.NoError(t, s.Register(sched, time.Hour, 20*time.Millisecond))
	assert.Equal(t, 2, sched.Stats().ScheduledJobs)

	require.Eventually(t, func() bool {
		eval.mu.Lock()
		defer eval.mu.Unlock()
		return len(eval.seen) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestCompactWrapsStoreError(t *testing.T) {
	s := NewSweeper(failingReports{memory.NewReportStore()}, &fakeEvaluator{}, time.Hour, 1, logger.Nop())

	removed, err := s.Compact(context.Background())
	require.Error(t, err)
	assert.Zero(t, removed)
	assert.Contains(t, err.Error(), "failed to compact reports")
	assert.Contains(t, err.Error(), "disk full")
}

func TestRegisterLogsFailedSweep(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := logger.FromZap(zap.New(core), "")

	sched := timer.NewScheduler(1, logger.Nop())
	sched.Start()
	defer sched.Stop()

	s := NewSweeper(failingReports{memory.NewReportStore()}, &fakeEvaluator{}, time.Hour, 1, log)
	require.NoError(t, s.Register(sched, 20*time.Millisecond, time.Hour))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("retention sweep failed").Len() > 0
	}, time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("retention sweep failed").All()[0]
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	assert.Contains(t, entry.ContextMap()["error"], "disk full")
}
