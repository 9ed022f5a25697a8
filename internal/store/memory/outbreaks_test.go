package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/symptom-intel/internal/model"
)

func outbreak(id, location, disease string, at time.Time) *model.OutbreakRecord {
	return &model.OutbreakRecord{
		ID:         id,
		Location:   location,
		DiseaseID:  disease,
		CaseCount:  3,
		Severity:   model.OutbreakMedium,
		DetectedAt: at,
		Status:     model.OutbreakActive,
	}
}

func TestOutbreakRegistryCreateIfAbsent(t *testing.T) {
	r := NewOutbreakRegistry()
	ctx := context.Background()
	now := time.Now()

	rec, created, err := r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "o1", rec.ID)

	rec, created, err = r.CreateIfAbsent(ctx, outbreak("o2", "guwahati", "dengue", now))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "o1", rec.ID)

	_, created, err = r.CreateIfAbsent(ctx, outbreak("o3", "Guwahati", "malaria", now))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestOutbreakRegistryResolveReenablesDetection(t *testing.T) {
	r := NewOutbreakRegistry()
	ctx := context.Background()
	now := time.Now()

	r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", now))

	res, err := r.Resolve(ctx, "o1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.OutbreakResolved, res.Status)
	require.NotNil(t, res.ResolvedAt)

	_, created, err := r.CreateIfAbsent(ctx, outbreak("o2", "Guwahati", "dengue", now.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = r.Resolve(ctx, "missing", now)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestOutbreakRegistryConcurrentCreate(t *testing.T) {
	r := NewOutbreakRegistry()
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, created, err := r.CreateIfAbsent(ctx, outbreak(fmt.Sprintf("o%d", i), "Guwahati", "dengue", now))
			if err == nil && created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	active, _ := r.List(ctx, model.OutbreakFilter{Status: model.OutbreakActive})
	assert.Len(t, active, 1)
}

func TestOutbreakRegistryListFiltersNewestFirst(t *testing.T) {
	r := NewOutbreakRegistry()
	ctx := context.Background()
	base := time.Now()

	r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", base))
	r.CreateIfAbsent(ctx, outbreak("o2", "North Guwahati", "malaria", base.Add(time.Minute)))
	high := outbreak("o3", "Pune", "fever_cluster", base.Add(2*time.Minute))
	high.Severity = model.OutbreakHigh
	r.CreateIfAbsent(ctx, high)
	require.NoError(t, r.SetAlertsSent(ctx, "o3", 7))

	got, _ := r.List(ctx, model.OutbreakFilter{Location: "guwahati"})
	require.Len(t, got, 2)
	assert.Equal(t, "o2", got[0].ID)
	assert.Equal(t, "o1", got[1].ID)

	got, _ = r.List(ctx, model.OutbreakFilter{Severity: model.OutbreakHigh})
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].AlertsSent)
}
