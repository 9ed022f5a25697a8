package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

type cluster struct {
	location string
	reports  []*model.Report // ordered by CreatedAt
}

type reportShard struct {
	mu       sync.RWMutex
	clusters map[string]*cluster
}

// ReportStore keeps each location's reports in CreatedAt order
type ReportStore struct {
	shards []*reportShard
}

func NewReportStore() *ReportStore {
	s := &ReportStore{shards: make([]*reportShard, defaultShards)}
	for i := range s.shards {
		s.shards[i] = &reportShard{clusters: make(map[string]*cluster)}
	}
	return s
}

func (s *ReportStore) shard(key string) *reportShard {
	return s.shards[shardFor(key, len(s.shards))]
}

func (s *ReportStore) Append(ctx context.Context, r *model.Report) error {
	key := model.LocationKey(r.Location)
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	c, ok := sh.clusters[key]
	if !ok {
		c = &cluster{location: r.Location}
		sh.clusters[key] = c
	}

	// Reports almost always arrive in order; insert after any equal timestamps.
	i := sort.Search(len(c.reports), func(i int) bool {
		return c.reports[i].CreatedAt.After(r.CreatedAt)
	})
	c.reports = append(c.reports, nil)
	copy(c.reports[i+1:], c.reports[i:])
	c.reports[i] = r
	return nil
}

func (s *ReportStore) Window(ctx context.Context, location string, since time.Time) ([]*model.Report, error) {
	key := model.LocationKey(location)
	sh := s.shard(key)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	c, ok := sh.clusters[key]
	if !ok {
		return nil, nil
	}
	i := sort.Search(len(c.reports), func(i int) bool {
		return c.reports[i].CreatedAt.After(since)
	})
	out := make([]*model.Report, len(c.reports)-i)
	copy(out, c.reports[i:])
	return out, nil
}

func (s *ReportStore) Compact(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, c := range sh.clusters {
			i := sort.Search(len(c.reports), func(i int) bool {
				return c.reports[i].CreatedAt.After(cutoff)
			})
			if i == 0 {
				continue
			}
			removed += i
			if i == len(c.reports) {
				delete(sh.clusters, key)
				continue
			}
			// Copy so the dropped prefix can be collected.
			c.reports = append([]*model.Report(nil), c.reports[i:]...)
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

func (s *ReportStore) Locations(ctx context.Context) ([]string, error) {
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, c := range sh.clusters {
			out = append(out, c.location)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(out)
	return out, nil
}

func (s *ReportStore) CountByLocation(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, c := range sh.clusters {
			out[key] = len(c.reports)
		}
		sh.mu.RUnlock()
	}
	return out, nil
}

func (s *ReportStore) Count(ctx context.Context) (int, error) {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, c := range sh.clusters {
			total += len(c.reports)
		}
		sh.mu.RUnlock()
	}
	return total, nil
}
