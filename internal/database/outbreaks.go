package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/smukkama/symptom-intel/internal/model"
)

// OutbreakRegistry implements store.OutbreakRegistry on PostgreSQL. The
// partial unique index on (location_key, disease_id) WHERE status = 'active'
// is what makes CreateIfAbsent atomic.
type OutbreakRegistry struct {
	db *DB
}

func NewOutbreakRegistry(db *DB) *OutbreakRegistry {
	return &OutbreakRegistry{db: db}
}

func (r *OutbreakRegistry) CreateIfAbsent(ctx context.Context, rec *model.OutbreakRecord) (*model.OutbreakRecord, bool, error) {
	query := `
		INSERT INTO outbreaks (id, location, location_key, disease_id, disease, case_count, severity,
			symptoms, detected_at, status, alerts_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (location_key, disease_id) WHERE status = 'active' DO NOTHING
		RETURNING ` + outbreakColumns
	created, err := scanOutbreak(r.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.Location,
		model.LocationKey(rec.Location),
		rec.DiseaseID,
		rec.Disease,
		rec.CaseCount,
		string(rec.Severity),
		pq.Array(rec.Symptoms),
		rec.DetectedAt,
		string(model.OutbreakActive),
		rec.AlertsSent,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert outbreak: %w", err)
	}

	existing, err := scanOutbreak(r.db.QueryRowContext(ctx, `
		SELECT `+outbreakColumns+`
		FROM outbreaks
		WHERE location_key = $1 AND disease_id = $2 AND status = $3
	`, model.LocationKey(rec.Location), rec.DiseaseID, string(model.OutbreakActive)))
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict reported but no active row: it was resolved in between.
		return nil, false, fmt.Errorf("%w: active outbreak %s vanished during insert", model.ErrInvariantViolation, rec.Key())
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load active outbreak: %w", err)
	}
	return existing, false, nil
}

func (r *OutbreakRegistry) SetAlertsSent(ctx context.Context, id string, n int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbreaks SET alerts_sent = $2 WHERE id = $1`, id, n)
	if err != nil {
		return fmt.Errorf("failed to update outbreak: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *OutbreakRegistry) Resolve(ctx context.Context, id string, at time.Time) (*model.OutbreakRecord, error) {
	query := `
		UPDATE outbreaks
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + outbreakColumns
	rec, err := scanOutbreak(r.db.QueryRowContext(ctx, query,
		id, string(model.OutbreakResolved), at, string(model.OutbreakActive)))
	if errors.Is(err, sql.ErrNoRows) {
		// Already resolved, or unknown.
		return r.Get(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve outbreak: %w", err)
	}
	return rec, nil
}

func (r *OutbreakRegistry) Get(ctx context.Context, id string) (*model.OutbreakRecord, error) {
	rec, err := scanOutbreak(r.db.QueryRowContext(ctx,
		`SELECT `+outbreakColumns+` FROM outbreaks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbreak: %w", err)
	}
	return rec, nil
}

func (r *OutbreakRegistry) List(ctx context.Context, f model.OutbreakFilter) ([]*model.OutbreakRecord, error) {
	query := `
		SELECT ` + outbreakColumns + `
		FROM outbreaks
		WHERE ($1::text = '' OR status = $1)
		  AND ($2::text = '' OR severity = $2)
		  AND ($3::text = '' OR POSITION(LOWER($3) IN LOWER(location)) > 0)
		ORDER BY detected_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, string(f.Status), string(f.Severity), f.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbreaks: %w", err)
	}
	defer rows.Close()

	out := make([]*model.OutbreakRecord, 0)
	for rows.Next() {
		rec, err := scanOutbreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbreak: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
