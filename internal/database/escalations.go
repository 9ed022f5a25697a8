package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/smukkama/symptom-intel/internal/model"
)

const uniqueViolation = "23505"

// EscalationStore implements store.EscalationStore on PostgreSQL
type EscalationStore struct {
	db *DB
}

func NewEscalationStore(db *DB) *EscalationStore {
	return &EscalationStore{db: db}
}

func (s *EscalationStore) Create(ctx context.Context, rec *model.EscalationRecord) error {
	matched, err := json.Marshal(rec.MatchedConditions)
	if err != nil {
		return fmt.Errorf("failed to encode matched conditions: %w", err)
	}

	query := `
		INSERT INTO escalations (id, report_id, escalation_level, status, location, language, symptoms,
			patient_name, patient_phone, matched_conditions, workers_notified, notified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ReportID,
		rec.EscalationLevel.String(),
		string(rec.Status),
		rec.Location,
		rec.Language,
		pq.Array(rec.Symptoms),
		rec.PatientInfo.Name,
		rec.PatientInfo.Phone,
		matched,
		rec.WorkersNotified,
		nullTime(rec.NotifiedAt),
		rec.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: escalation for report %s already exists", model.ErrInvariantViolation, rec.ReportID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert escalation: %w", err)
	}
	return nil
}

func (s *EscalationStore) MarkNotified(ctx context.Context, reportID string, at time.Time, workers int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE escalations SET notified_at = $2, workers_notified = $3 WHERE report_id = $1`,
		reportID, at, workers)
	if err != nil {
		return fmt.Errorf("failed to update escalation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
	}
	return nil
}

// Respond only updates a pending record, so concurrent responders race on
// the row lock and exactly one wins.
func (s *EscalationStore) Respond(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}

	query := `
		UPDATE escalations
		SET status = $2, response = $3
		WHERE report_id = $1 AND status = $4
		RETURNING ` + escalationColumns
	rec, err := scanEscalation(s.db.QueryRowContext(ctx, query,
		reportID, string(model.StatusResponded), payload, string(model.StatusPendingResponse)))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to respond to escalation: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM escalations WHERE report_id = $1)`, reportID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up escalation: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrAlreadyResponded)
	}
	return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
}

func (s *EscalationStore) Get(ctx context.Context, reportID string) (*model.EscalationRecord, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalations WHERE report_id = $1`
	rec, err := scanEscalation(s.db.QueryRowContext(ctx, query, reportID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("escalation %s: %w", reportID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	return rec, nil
}

func (s *EscalationStore) List(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error) {
	query := `
		SELECT ` + escalationColumns + `
		FROM escalations
		WHERE ($1::text = '' OR status = $1) AND ($2::text = '' OR language = $2)
		ORDER BY created_at DESC, report_id
	`
	rows, err := s.db.QueryContext(ctx, query, string(f.Status), f.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalations: %w", err)
	}
	defer rows.Close()

	out := make([]*model.EscalationRecord, 0)
	for rows.Next() {
		rec, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
