package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/smukkama/symptom-intel/internal/model"
)

// SubscriberRegistry indexes subscribers by phone and by location key
type SubscriberRegistry struct {
	subs       map[string]*model.Subscriber // key: phone
	byLocation map[string][]string          // key: location key, value: []phone
	mu         sync.RWMutex
}

func NewSubscriberRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{
		subs:       make(map[string]*model.Subscriber),
		byLocation: make(map[string][]string),
	}
}

// Upsert adds or replaces the subscription for s.Phone
func (r *SubscriberRegistry) Upsert(ctx context.Context, s *model.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[s.Phone]; exists {
		r.unindex(s.Phone)
	}
	c := *s
	r.subs[s.Phone] = &c
	key := model.LocationKey(s.Location)
	r.byLocation[key] = append(r.byLocation[key], s.Phone)
	return nil
}

func (r *SubscriberRegistry) Remove(ctx context.Context, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[phone]; !exists {
		return false, nil
	}
	r.unindex(phone)
	delete(r.subs, phone)
	return true, nil
}

// unindex drops phone from the location index. Callers hold mu.
func (r *SubscriberRegistry) unindex(phone string) {
	key := model.LocationKey(r.subs[phone].Location)
	phones := r.byLocation[key]
	for i, p := range phones {
		if p == phone {
			r.byLocation[key] = append(phones[:i], phones[i+1:]...)
			break
		}
	}
	if len(r.byLocation[key]) == 0 {
		delete(r.byLocation, key)
	}
}

func (r *SubscriberRegistry) Matching(ctx context.Context, location string, limit int) ([]*model.Subscriber, error) {
	r.mu.RLock()
	var out []*model.Subscriber
	collect := func(key string) {
		for _, phone := range r.byLocation[key] {
			if s := r.subs[phone]; s.Active {
				c := *s
				out = append(out, &c)
			}
		}
	}
	key := model.LocationKey(location)
	collect(key)
	if key != model.LocationAll {
		collect(model.LocationAll)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubscribedAt.Equal(out[j].SubscribedAt) {
			return out[i].SubscribedAt.Before(out[j].SubscribedAt)
		}
		return out[i].Phone < out[j].Phone
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SubscriberRegistry) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs), nil
}
