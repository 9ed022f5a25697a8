package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

func sub(phone, location string, at time.Time) *model.Subscriber {
	return &model.Subscriber{Phone: phone, Location: location, Language: "english", Active: true, SubscribedAt: at}
}

func TestSubscriberRegistry_Upsert(t *testing.T) {
	r := NewSubscriberRegistry()
	ctx := context.Background()
	now := time.Now()

	if err := r.Upsert(ctx, sub("+1", "Guwahati", now)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	// Re-subscribing moves the phone to the new location
	if err := r.Upsert(ctx, sub("+1", "Pune", now)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if n, _ := r.Count(ctx); n != 1 {
		t.Errorf("Expected 1 subscriber, got %d", n)
	}

	got, _ := r.Matching(ctx, "guwahati", 100)
	if len(got) != 0 {
		t.Errorf("Expected no Guwahati subscribers, got %d", len(got))
	}
	got, _ = r.Matching(ctx, "PUNE", 100)
	if len(got) != 1 || got[0].Phone != "+1" {
		t.Errorf("Expected +1 for Pune, got %v", got)
	}
}

func TestSubscriberRegistry_Remove(t *testing.T) {
	r := NewSubscriberRegistry()
	ctx := context.Background()

	r.Upsert(ctx, sub("+1", "Guwahati", time.Now()))

	removed, err := r.Remove(ctx, "+1")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, _ = r.Remove(ctx, "+1")
	if removed {
		t.Error("Expected second Remove to report false")
	}
	if len(r.byLocation) != 0 {
		t.Errorf("Expected empty location index, got %v", r.byLocation)
	}
}

func TestSubscriberRegistry_MatchingIncludesWildcardInOrder(t *testing.T) {
	r := NewSubscriberRegistry()
	ctx := context.Background()
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	r.Upsert(ctx, sub("+3", "Guwahati", base.Add(2*time.Minute)))
	r.Upsert(ctx, sub("+2", "all", base.Add(time.Minute)))
	r.Upsert(ctx, sub("+1", "Guwahati", base.Add(time.Minute)))
	r.Upsert(ctx, sub("+9", "Pune", base))
	inactive := sub("+0", "Guwahati", base)
	inactive.Active = false
	r.Upsert(ctx, inactive)

	got, err := r.Matching(ctx, "Guwahati", 100)
	if err != nil {
		t.Fatalf("Matching failed: %v", err)
	}

	var phones []string
	for _, s := range got {
		phones = append(phones, s.Phone)
	}
	want := []string{"+1", "+2", "+3"}
	if fmt.Sprint(phones) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, phones)
	}
}

func TestSubscriberRegistry_MatchingCap(t *testing.T) {
	r := NewSubscriberRegistry()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 150; i++ {
		r.Upsert(ctx, sub(fmt.Sprintf("+%03d", i), "Guwahati", base.Add(time.Duration(i)*time.Second)))
	}

	got, _ := r.Matching(ctx, "Guwahati", 100)
	if len(got) != 100 {
		t.Fatalf("Expected 100 subscribers, got %d", len(got))
	}
	if got[0].Phone != "+000" || got[99].Phone != "+099" {
		t.Errorf("Expected oldest subscribers first, got %s..%s", got[0].Phone, got[99].Phone)
	}
}
