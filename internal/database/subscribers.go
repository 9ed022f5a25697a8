package database

import (
	"context"
	"fmt"

	"github.com/smukkama/symptom-intel/internal/model"
)

// SubscriberRegistry implements store.SubscriberRegistry on PostgreSQL
type SubscriberRegistry struct {
	db *DB
}

func NewSubscriberRegistry(db *DB) *SubscriberRegistry {
	return &SubscriberRegistry{db: db}
}

func (r *SubscriberRegistry) Upsert(ctx context.Context, s *model.Subscriber) error {
	query := `
		INSERT INTO subscribers (phone, location, location_key, language, name, active, subscribed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (phone) DO UPDATE
		SET location = EXCLUDED.location,
		    location_key = EXCLUDED.location_key,
		    language = EXCLUDED.language,
		    name = EXCLUDED.name,
		    active = EXCLUDED.active,
		    subscribed_at = EXCLUDED.subscribed_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.Phone, s.Location, model.LocationKey(s.Location), s.Language, s.Name, s.Active, s.SubscribedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	return nil
}

func (r *SubscriberRegistry) Remove(ctx context.Context, phone string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE phone = $1`, phone)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SubscriberRegistry) Matching(ctx context.Context, location string, limit int) ([]*model.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE active AND location_key IN ($1, $2)
		ORDER BY subscribed_at, phone
		LIMIT $3
	`
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := r.db.QueryContext(ctx, query, model.LocationKey(location), model.LocationAll, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var out []*model.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubscriberRegistry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return n, nil
}
