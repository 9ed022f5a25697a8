// Package store defines the persistence contracts of the engine. The memory
// subpackage is the default; database and redisstore provide durable
// implementations.
package store

import (
	"context"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

// ReportStore holds the append-only per-location report clusters
type ReportStore interface {
	Append(ctx context.Context, r *model.Report) error
	// Window returns reports for location with CreatedAt strictly after
	// since, oldest first.
	Window(ctx context.Context, location string, since time.Time) ([]*model.Report, error)
	// Compact drops reports created at or before cutoff and returns how many
	// were removed.
	Compact(ctx context.Context, cutoff time.Time) (int, error)
	// Locations lists every location with at least one stored report,
	// in its originally reported spelling.
	Locations(ctx context.Context) ([]string, error)
	// CountByLocation returns the number of stored reports per location key
	CountByLocation(ctx context.Context) (map[string]int, error)
	Count(ctx context.Context) (int, error)
}

// OutbreakRegistry enforces at most one active outbreak per
// (location, diseaseId) key.
type OutbreakRegistry interface {
	// CreateIfAbsent inserts rec unless an active record already exists for
	// its key. It returns the stored record and whether it was created.
	CreateIfAbsent(ctx context.Context, rec *model.OutbreakRecord) (*model.OutbreakRecord, bool, error)
	SetAlertsSent(ctx context.Context, id string, n int) error
	// Resolve clears the active flag, re-enabling detection for the key.
	Resolve(ctx context.Context, id string, at time.Time) (*model.OutbreakRecord, error)
	Get(ctx context.Context, id string) (*model.OutbreakRecord, error)
	// List returns matching records, newest DetectedAt first.
	List(ctx context.Context, f model.OutbreakFilter) ([]*model.OutbreakRecord, error)
}

// EscalationStore keeps one escalation per report
type EscalationStore interface {
	Create(ctx context.Context, rec *model.EscalationRecord) error
	MarkNotified(ctx context.Context, reportID string, at time.Time, workers int) error
	// Respond transitions pending_response to responded. It fails with
	// model.ErrNotFound or model.ErrAlreadyResponded.
	Respond(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error)
	Get(ctx context.Context, reportID string) (*model.EscalationRecord, error)
	// List returns matching records, newest first.
	List(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error)
}

// SubscriberRegistry stores outbreak alert subscriptions keyed by phone
type SubscriberRegistry interface {
	Upsert(ctx context.Context, s *model.Subscriber) error
	Remove(ctx context.Context, phone string) (bool, error)
	// Matching returns active subscribers covering location, oldest
	// subscription first with phone as tie-break, at most limit of them.
	Matching(ctx context.Context, location string, limit int) ([]*model.Subscriber, error)
	Count(ctx context.Context) (int, error)
}
