package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/smukkama/symptom-intel/internal/model"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

const reportColumns = `id, location, symptoms, patient_name, patient_phone, language, created_at`

func scanReport(s scanner) (*model.Report, error) {
	var r model.Report
	err := s.Scan(
		&r.ID,
		&r.Location,
		pq.Array(&r.Symptoms),
		&r.PatientInfo.Name,
		&r.PatientInfo.Phone,
		&r.Language,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

const escalationColumns = `id, report_id, escalation_level, status, location, language, symptoms,
	patient_name, patient_phone, matched_conditions, workers_notified, notified_at, response, created_at`

func scanEscalation(s scanner) (*model.EscalationRecord, error) {
	var (
		rec        model.EscalationRecord
		level      string
		status     string
		matched    []byte
		response   []byte
		notifiedAt sql.NullTime
	)
	err := s.Scan(
		&rec.ID,
		&rec.ReportID,
		&level,
		&status,
		&rec.Location,
		&rec.Language,
		pq.Array(&rec.Symptoms),
		&rec.PatientInfo.Name,
		&rec.PatientInfo.Phone,
		&matched,
		&rec.WorkersNotified,
		&notifiedAt,
		&response,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.EscalationLevel, err = model.ParseEscalationLevel(level); err != nil {
		return nil, err
	}
	rec.Status = model.EscalationStatus(status)
	if len(matched) > 0 {
		if err := json.Unmarshal(matched, &rec.MatchedConditions); err != nil {
			return nil, fmt.Errorf("failed to decode matched conditions: %w", err)
		}
	}
	if len(response) > 0 {
		var resp model.WorkerResponse
		if err := json.Unmarshal(response, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode worker response: %w", err)
		}
		rec.Response = &resp
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time.UTC()
		rec.NotifiedAt = &t
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

const outbreakColumns = `id, location, disease_id, disease, case_count, severity, symptoms,
	detected_at, status, alerts_sent, resolved_at`

func scanOutbreak(s scanner) (*model.OutbreakRecord, error) {
	var (
		rec        model.OutbreakRecord
		severity   string
		status     string
		resolvedAt sql.NullTime
	)
	err := s.Scan(
		&rec.ID,
		&rec.Location,
		&rec.DiseaseID,
		&rec.Disease,
		&rec.CaseCount,
		&severity,
		pq.Array(&rec.Symptoms),
		&rec.DetectedAt,
		&status,
		&rec.AlertsSent,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Severity = model.OutbreakSeverity(severity)
	rec.Status = model.OutbreakStatus(status)
	rec.DetectedAt = rec.DetectedAt.UTC()
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		rec.ResolvedAt = &t
	}
	return &rec, nil
}

const subscriberColumns = `phone, location, language, name, active, subscribed_at`

func scanSubscriber(s scanner) (*model.Subscriber, error) {
	var sub model.Subscriber
	err := s.Scan(&sub.Phone, &sub.Location, &sub.Language, &sub.Name, &sub.Active, &sub.SubscribedAt)
	if err != nil {
		return nil, err
	}
	sub.SubscribedAt = sub.SubscribedAt.UTC()
	return &sub, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
