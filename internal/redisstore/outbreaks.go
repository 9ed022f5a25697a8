// Package redisstore keeps the outbreak registry in Redis so several engine
// instances share one "at most one active outbreak per key" guarantee.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/symptom-intel/internal/model"
)

const (
	recordPrefix = "outbreak:"
	activePrefix = "outbreak_active:"
	indexKey     = "outbreaks"

	maxUpdateRetries = 10
)

// createScript claims the active key and writes the record in one step.
// KEYS: active key, record key, index. ARGV: id, record json, score.
var createScript = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
  return {0, existing}
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return {1, ARGV[1]}
`)

// releaseScript deletes the active key only if it still points at ARGV[1]
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// OutbreakRegistry implements store.OutbreakRegistry on Redis
type OutbreakRegistry struct {
	redis *redis.Client
}

// NewOutbreakRegistry creates a registry on an existing client
func NewOutbreakRegistry(client *redis.Client) *OutbreakRegistry {
	return &OutbreakRegistry{redis: client}
}

func recordKey(id string) string {
	return recordPrefix + id
}

func activeKey(key string) string {
	return activePrefix + key
}

func (r *OutbreakRegistry) CreateIfAbsent(ctx context.Context, rec *model.OutbreakRecord) (*model.OutbreakRecord, bool, error) {
	stored := rec.Clone()
	stored.Status = model.OutbreakActive
	data, err := json.Marshal(stored)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal outbreak: %w", err)
	}

	res, err := createScript.Run(ctx, r.redis,
		[]string{activeKey(stored.Key()), recordKey(stored.ID), indexKey},
		stored.ID, data, stored.DetectedAt.UnixNano(),
	).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("failed to create outbreak in Redis: %w", err)
	}
	if len(res) != 2 {
		return nil, false, fmt.Errorf("unexpected create reply %v", res)
	}

	created, _ := res[0].(int64)
	if created == 1 {
		return stored, true, nil
	}

	id, _ := res[1].(string)
	existing, err := r.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: active key %s points at missing outbreak %s",
			model.ErrInvariantViolation, stored.Key(), id)
	}
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *OutbreakRegistry) SetAlertsSent(ctx context.Context, id string, n int) error {
	_, err := r.update(ctx, id, func(rec *model.OutbreakRecord) bool {
		rec.AlertsSent = n
		return true
	})
	return err
}

func (r *OutbreakRegistry) Resolve(ctx context.Context, id string, at time.Time) (*model.OutbreakRecord, error) {
	rec, err := r.update(ctx, id, func(rec *model.OutbreakRecord) bool {
		if rec.Status == model.OutbreakResolved {
			return false
		}
		rec.Status = model.OutbreakResolved
		rec.ResolvedAt = &at
		return true
	})
	if err != nil {
		return nil, err
	}

	if err := releaseScript.Run(ctx, r.redis, []string{activeKey(rec.Key())}, id).Err(); err != nil {
		return nil, fmt.Errorf("failed to release active key: %w", err)
	}
	return rec, nil
}

// update applies fn to the stored record under WATCH, retrying when another
// writer touched it first. fn returns false to skip the write.
func (r *OutbreakRegistry) update(ctx context.Context, id string, fn func(*model.OutbreakRecord) bool) (*model.OutbreakRecord, error) {
	key := recordKey(id)
	var out *model.OutbreakRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var rec model.OutbreakRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal outbreak %s: %w", id, err)
		}
		out = &rec
		if !fn(&rec) {
			return nil
		}
		updated, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.redis.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("outbreak %s: too much contention", id)
}

func (r *OutbreakRegistry) Get(ctx context.Context, id string) (*model.OutbreakRecord, error) {
	data, err := r.redis.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("outbreak %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbreak from Redis: %w", err)
	}

	var rec model.OutbreakRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbreak: %w", err)
	}
	return &rec, nil
}

func (r *OutbreakRegistry) List(ctx context.Context, f model.OutbreakFilter) ([]*model.OutbreakRecord, error) {
	ids, err := r.redis.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list outbreaks: %w", err)
	}
	out := make([]*model.OutbreakRecord, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load outbreaks: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.OutbreakRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outbreak %s: %w", ids[i], err)
		}
		if f.Matches(&rec) {
			out = append(out, &rec)
		}
	}
	model.SortOutbreaks(out)
	return out, nil
}

// Ping checks connectivity
func (r *OutbreakRegistry) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}
