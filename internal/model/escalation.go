package model

import (
	"fmt"
	"time"
)

// EscalationStatus is the lifecycle state of an EscalationRecord.
// The only transition is PendingResponse -> Responded.
type EscalationStatus string

const (
	StatusPendingResponse EscalationStatus = "pending_response"
	StatusResponded       EscalationStatus = "responded"
)

// ParseEscalationStatus validates a status filter value
func ParseEscalationStatus(s string) (EscalationStatus, error) {
	switch EscalationStatus(s) {
	case StatusPendingResponse, StatusResponded:
		return EscalationStatus(s), nil
	default:
		return "", fmt.Errorf("%w: unknown escalation status %q", ErrInvalidReport, s)
	}
}

// WorkerResponse is what a health worker sends back to close an escalation
type WorkerResponse struct {
	WorkerName       string    `json:"workerName"`
	Response         string    `json:"response"`
	Action           string    `json:"action"`
	FollowUpRequired bool      `json:"followUpRequired"`
	RespondedAt      time.Time `json:"respondedAt"`
}

// EscalationRecord tracks one escalated report, keyed by ReportID
type EscalationRecord struct {
	ID                string           `json:"id"`
	ReportID          string           `json:"reportId"`
	EscalationLevel   EscalationLevel  `json:"escalationLevel"`
	Status            EscalationStatus `json:"status"`
	Location          string           `json:"location"`
	Language          string           `json:"language"`
	Symptoms          []string         `json:"symptoms"`
	PatientInfo       PatientInfo      `json:"patientInfo"`
	MatchedConditions []ConditionMatch `json:"matchedConditions"`
	WorkersNotified   int              `json:"workersNotified"`
	NotifiedAt        *time.Time       `json:"notifiedAt,omitempty"`
	Response          *WorkerResponse  `json:"healthWorkerResponse,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// AlertsSent reports whether at least one worker was notified.
func (r *EscalationRecord) AlertsSent() bool {
	return r.NotifiedAt != nil
}

// Clone returns a deep copy safe to hand out of a store.
func (r *EscalationRecord) Clone() *EscalationRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Symptoms = append([]string(nil), r.Symptoms...)
	c.MatchedConditions = append([]ConditionMatch(nil), r.MatchedConditions...)
	if r.NotifiedAt != nil {
		t := *r.NotifiedAt
		c.NotifiedAt = &t
	}
	if r.Response != nil {
		resp := *r.Response
		c.Response = &resp
	}
	return &c
}

// EscalationFilter narrows GetEscalations. Zero values match everything.
type EscalationFilter struct {
	Status   EscalationStatus
	Language string
}

func (f EscalationFilter) Matches(r *EscalationRecord) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Language != "" && r.Language != f.Language {
		return false
	}
	return true
}
