package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

// EscalationStore keeps escalation records keyed by report id
type EscalationStore struct {
	mu      sync.RWMutex
	records map[string]*model.EscalationRecord
}

func NewEscalationStore() *EscalationStore {
	return &EscalationStore{records: make(map[string]*model.EscalationRecord)}
}

func (s *EscalationStore) Create(ctx context.Context, rec *model.EscalationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ReportID]; exists {
		return fmt.Errorf("%w: escalation for report %s already exists", model.ErrInvariantViolation, rec.ReportID)
	}
	s.records[rec.ReportID] = rec.Clone()
	return nil
}

func (s *EscalationStore) MarkNotified(ctx context.Context, reportID string, at time.Time, workers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[reportID]
	if !ok {
		return fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
	}
	rec.NotifiedAt = &at
	rec.WorkersNotified = workers
	return nil
}

func (s *EscalationStore) Respond(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[reportID]
	if !ok {
		return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
	}
	if rec.Status != model.StatusPendingResponse {
		return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrAlreadyResponded)
	}
	rec.Status = model.StatusResponded
	rec.Response = &resp
	return rec.Clone(), nil
}

func (s *EscalationStore) Get(ctx context.Context, reportID string) (*model.EscalationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[reportID]
	if !ok {
		return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *EscalationStore) List(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error) {
	s.mu.RLock()
	out := make([]*model.EscalationRecord, 0)
	for _, rec := range s.records {
		if f.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ReportID < out[j].ReportID
	})
	return out, nil
}
