package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// OutbreakSeverity is the severity of a detected outbreak
type OutbreakSeverity string

const (
	OutbreakMedium OutbreakSeverity = "medium"
	OutbreakHigh   OutbreakSeverity = "high"
)

// OutbreakStatus is the lifecycle of an OutbreakRecord
type OutbreakStatus string

const (
	OutbreakActive   OutbreakStatus = "active"
	OutbreakResolved OutbreakStatus = "resolved"
)

// OutbreakRecord is a deduplicated outbreak for a (location, disease) pair.
// At most one record per key may be active at any time.
type OutbreakRecord struct {
	ID         string           `json:"id"`
	Location   string           `json:"location"`
	DiseaseID  string           `json:"diseaseId"`
	Disease    string           `json:"disease"`
	CaseCount  int              `json:"caseCount"`
	Severity   OutbreakSeverity `json:"severity"`
	Symptoms   []string         `json:"symptoms"`
	DetectedAt time.Time        `json:"detectedAt"`
	Status     OutbreakStatus   `json:"status"`
	AlertsSent int              `json:"alertsSent"`
	ResolvedAt *time.Time       `json:"resolvedAt,omitempty"`
}

// Key returns the registry key "<locationKey>:<diseaseId>".
func (o *OutbreakRecord) Key() string {
	return OutbreakKey(o.Location, o.DiseaseID)
}

// OutbreakKey builds the idempotency key for a location and disease
func OutbreakKey(location, diseaseID string) string {
	return LocationKey(location) + ":" + diseaseID
}

func (o *OutbreakRecord) Clone() *OutbreakRecord {
	if o == nil {
		return nil
	}
	c := *o
	c.Symptoms = append([]string(nil), o.Symptoms...)
	if o.ResolvedAt != nil {
		t := *o.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// ParseOutbreakSeverity validates a severity filter value
func ParseOutbreakSeverity(s string) (OutbreakSeverity, error) {
	switch OutbreakSeverity(s) {
	case OutbreakMedium, OutbreakHigh:
		return OutbreakSeverity(s), nil
	default:
		return "", fmt.Errorf("%w: unknown outbreak severity %q", ErrInvalidReport, s)
	}
}

// ParseOutbreakStatus validates a status filter value
func ParseOutbreakStatus(s string) (OutbreakStatus, error) {
	switch OutbreakStatus(s) {
	case OutbreakActive, OutbreakResolved:
		return OutbreakStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown outbreak status %q", ErrInvalidReport, s)
	}
}

// OutbreakFilter narrows GetOutbreaks. Location is a case-insensitive substring.
type OutbreakFilter struct {
	Location string
	Severity OutbreakSeverity
	Status   OutbreakStatus
}

func (f OutbreakFilter) Matches(o *OutbreakRecord) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Severity != "" && o.Severity != f.Severity {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(o.Location), strings.ToLower(strings.TrimSpace(f.Location))) {
		return false
	}
	return true
}

// SortOutbreaks orders newest detection first, id as tie-break
func SortOutbreaks(out []*OutbreakRecord) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].DetectedAt.After(out[j].DetectedAt)
		}
		return out[i].ID < out[j].ID
	})
}
