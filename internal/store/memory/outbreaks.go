package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

// OutbreakRegistry is the in-memory outbreak registry. The active index is
// checked and written under one lock, which makes CreateIfAbsent atomic.
type OutbreakRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*model.OutbreakRecord
	active map[string]string // key -> outbreak id
}

func NewOutbreakRegistry() *OutbreakRegistry {
	return &OutbreakRegistry{
		byID:   make(map[string]*model.OutbreakRecord),
		active: make(map[string]string),
	}
}

func (r *OutbreakRegistry) CreateIfAbsent(ctx context.Context, rec *model.OutbreakRecord) (*model.OutbreakRecord, bool, error) {
	key := rec.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[key]; ok {
		existing, found := r.byID[id]
		if !found || existing.Status != model.OutbreakActive {
			return nil, false, fmt.Errorf("%w: active index for %s points at %s", model.ErrInvariantViolation, key, id)
		}
		return existing.Clone(), false, nil
	}
	if _, dup := r.byID[rec.ID]; dup {
		return nil, false, fmt.Errorf("%w: outbreak id %s reused", model.ErrInvariantViolation, rec.ID)
	}

	stored := rec.Clone()
	stored.Status = model.OutbreakActive
	r.byID[stored.ID] = stored
	r.active[key] = stored.ID
	return stored.Clone(), true, nil
}

func (r *OutbreakRegistry) SetAlertsSent(ctx context.Context, id string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	rec.AlertsSent = n
	return nil
}

func (r *OutbreakRegistry) Resolve(ctx context.Context, id string, at time.Time) (*model.OutbreakRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	if rec.Status == model.OutbreakResolved {
		return rec.Clone(), nil
	}
	rec.Status = model.OutbreakResolved
	rec.ResolvedAt = &at
	if r.active[rec.Key()] == id {
		delete(r.active, rec.Key())
	}
	return rec.Clone(), nil
}

func (r *OutbreakRegistry) Get(ctx context.Context, id string) (*model.OutbreakRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (r *OutbreakRegistry) List(ctx context.Context, f model.OutbreakFilter) ([]*model.OutbreakRecord, error) {
	r.mu.RLock()
	out := make([]*model.OutbreakRecord, 0)
	for _, rec := range r.byID {
		if f.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	r.mu.RUnlock()

	model.SortOutbreaks(out)
	return out, nil
}
