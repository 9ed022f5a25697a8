package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/smukkama/symptom-intel/internal/model"
)

// ReportStore implements store.ReportStore on PostgreSQL
type ReportStore struct {
	db *DB
}

func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) Append(ctx context.Context, r *model.Report) error {
	query := `
		INSERT INTO reports (id, location, location_key, symptoms, patient_name, patient_phone, language, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Location,
		model.LocationKey(r.Location),
		pq.Array(r.Symptoms),
		r.PatientInfo.Name,
		r.PatientInfo.Phone,
		r.Language,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *ReportStore) Window(ctx context.Context, location string, since time.Time) ([]*model.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE location_key = $1 AND created_at > $2
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, model.LocationKey(location), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []*model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ReportStore) Compact(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to compact reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *ReportStore) Locations(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ON (location_key) location
		FROM reports
		ORDER BY location_key, created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *ReportStore) CountByLocation(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT location_key, COUNT(*) FROM reports GROUP BY location_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (s *ReportStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}
