package model

import (
	"strings"
	"time"
)

// Wildcard location a subscriber can register for to receive every alert.
const LocationAll = "all"

// PatientInfo is the optional contact information attached to a report
type PatientInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Report is a single patient symptom report. It is never mutated after ingest.
type Report struct {
	ID          string      `json:"id"`
	Symptoms    []string    `json:"symptoms"`
	Location    string      `json:"location"`
	PatientInfo PatientInfo `json:"patientInfo"`
	Language    string      `json:"language"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// LocationKey is the normalized key used to cluster reports and index outbreaks.
func LocationKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}

// NormalizeSymptoms lower-cases and trims the reported symptoms, dropping blanks.
func NormalizeSymptoms(symptoms []string) []string {
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ReportInput is what a caller supplies to SubmitReport
type ReportInput struct {
	Symptoms    []string    `json:"symptoms"`
	Location    string      `json:"location"`
	PatientInfo PatientInfo `json:"patientInfo"`
	Language    string      `json:"language"`
}

// SubmitResult is returned from SubmitReport
type SubmitResult struct {
	ReportID             string            `json:"reportId"`
	EscalationLevel      EscalationLevel   `json:"escalationLevel"`
	MatchedConditions    []ConditionMatch  `json:"matchedConditions"`
	NewOutbreaksDetected []*OutbreakRecord `json:"newOutbreaksDetected"`
}
