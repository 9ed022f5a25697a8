package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/symptom-intel/internal/model"
)

func newRegistry(t *testing.T) (*OutbreakRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewOutbreakRegistry(client), mr
}

func outbreak(id, location, disease string, at time.Time) *model.OutbreakRecord {
	return &model.OutbreakRecord{
		ID:         id,
		Location:   location,
		DiseaseID:  disease,
		Disease:    "Dengue Fever",
		CaseCount:  3,
		Severity:   model.OutbreakMedium,
		Symptoms:   []string{"fever", "headache", "rash"},
		DetectedAt: at,
		Status:     model.OutbreakActive,
	}
}

func TestCreateIfAbsent(t *testing.T) {
	r, mr := newRegistry(t)
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	rec, created, err := r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "o1", rec.ID)

	got, err := mr.Get("outbreak_active:guwahati:dengue")
	require.NoError(t, err)
	assert.Equal(t, "o1", got)

	rec, created, err = r.CreateIfAbsent(ctx, outbreak("o2", " GUWAHATI", "dengue", now))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "o1", rec.ID)
	assert.Equal(t, []string{"fever", "headache", "rash"}, rec.Symptoms)
	assert.False(t, mr.Exists("outbreak:o2"))
}

func TestCreateIfAbsentDanglingActiveKey(t *testing.T) {
	r, mr := newRegistry(t)
	require.NoError(t, mr.Set("outbreak_active:guwahati:dengue", "ghost"))

	_, _, err := r.CreateIfAbsent(context.Background(), outbreak("o1", "Guwahati", "dengue", time.Now()))
	assert.True(t, errors.Is(err, model.ErrInvariantViolation))
}

func TestConcurrentCreate(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := r.CreateIfAbsent(ctx, outbreak(fmt.Sprintf("o%d", i), "Guwahati", "dengue", now))
			if err == nil && ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestResolveAndAlertsSent(t *testing.T) {
	r, mr := newRegistry(t)
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", now))
	require.NoError(t, err)
	require.NoError(t, r.SetAlertsSent(ctx, "o1", 12))

	res, err := r.Resolve(ctx, "o1", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.OutbreakResolved, res.Status)
	assert.Equal(t, 12, res.AlertsSent)
	assert.False(t, mr.Exists("outbreak_active:guwahati:dengue"))

	_, created, err := r.CreateIfAbsent(ctx, outbreak("o2", "Guwahati", "dengue", now.Add(2*time.Hour)))
	require.NoError(t, err)
	assert.True(t, created)

	// Resolving the old record again must not release the new one
	_, err = r.Resolve(ctx, "o1", now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, mr.Exists("outbreak_active:guwahati:dengue"))

	assert.True(t, errors.Is(r.SetAlertsSent(ctx, "missing", 1), model.ErrNotFound))
}

func TestList(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	r.CreateIfAbsent(ctx, outbreak("o1", "Guwahati", "dengue", base))
	r.CreateIfAbsent(ctx, outbreak("o2", "Pune", "malaria", base.Add(time.Hour)))
	r.CreateIfAbsent(ctx, outbreak("o3", "North Guwahati", "dengue", base.Add(2*time.Hour)))
	r.Resolve(ctx, "o3", base.Add(3*time.Hour))

	all, err := r.List(ctx, model.OutbreakFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "o3", all[0].ID)

	active, err := r.List(ctx, model.OutbreakFilter{Location: "guwahati", Status: model.OutbreakActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "o1", active[0].ID)
}
