// Package escalation drives the per-report health-worker workflow:
// pending_response on classification, responded once a worker replies.
package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/notification"
	"github.com/smukkama/symptom-intel/internal/store"
)

// Deliverer fans a batch of messages out. *notification.Dispatcher implements it.
type Deliverer interface {
	Deliver(ctx context.Context, msgs []notification.Message) notification.Delivery
}

type Workflow struct {
	store     store.EscalationStore
	directory *Directory
	renderer  *notification.Renderer
	deliverer Deliverer
	workerCap int
	log       *logger.Logger
	now       func() time.Time
}

func NewWorkflow(
	st store.EscalationStore,
	directory *Directory,
	renderer *notification.Renderer,
	deliverer Deliverer,
	workerCap int,
	log *logger.Logger,
) *Workflow {
	return &Workflow{
		store:     st,
		directory: directory,
		renderer:  renderer,
		deliverer: deliverer,
		workerCap: workerCap,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the time source
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// Escalate records an escalation for the report and notifies eligible
// workers. Notification failure never fails the call; the record simply
// stays without NotifiedAt.
func (w *Workflow) Escalate(ctx context.Context, r *model.Report, triage model.TriageResult) (*model.EscalationRecord, error) {
	if !triage.EscalationLevel.RequiresEscalation() {
		return nil, nil
	}

	rec := &model.EscalationRecord{
		ID:                uuid.New().String(),
		ReportID:          r.ID,
		EscalationLevel:   triage.EscalationLevel,
		Status:            model.StatusPendingResponse,
		Location:          r.Location,
		Language:          r.Language,
		Symptoms:          r.Symptoms,
		PatientInfo:       r.PatientInfo,
		MatchedConditions: triage.MatchedConditions,
		CreatedAt:         w.now().UTC(),
	}
	if err := w.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create escalation: %w", err)
	}

	workers := w.directory.Eligible(r.Language, w.workerCap)
	if len(workers) == 0 {
		w.log.Warn("no health worker available", "reportId", r.ID, "language", r.Language)
		return rec, nil
	}

	body, err := w.renderer.RenderEscalation(rec, r.Language)
	if err != nil {
		w.log.Error("failed to render escalation", "reportId", r.ID, "error", err)
		return rec, nil
	}
	msgs := make([]notification.Message, 0, len(workers))
	for _, wk := range workers {
		msgs = append(msgs, notification.Message{Recipient: wk.Phone, Body: body})
	}

	delivery := w.deliverer.Deliver(ctx, msgs)
	w.log.Info("escalation sent",
		"reportId", r.ID,
		"level", rec.EscalationLevel.String(),
		"sent", delivery.Sent,
		"failed", delivery.Failed,
		"abandoned", delivery.Abandoned)

	if delivery.Sent == 0 {
		return rec, nil
	}
	at := w.now().UTC()
	if err := w.store.MarkNotified(ctx, r.ID, at, delivery.Sent); err != nil {
		w.log.Error("failed to mark escalation notified", "reportId", r.ID, "error", err)
		return rec, nil
	}
	rec.NotifiedAt = &at
	rec.WorkersNotified = delivery.Sent
	return rec, nil
}

// Respond closes the escalation for reportID. An unknown id is ErrNotFound
// whatever the body holds. The first response wins; the patient is told
// about it on a best-effort basis.
func (w *Workflow) Respond(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error) {
	if _, err := w.store.Get(ctx, reportID); err != nil {
		return nil, err
	}
	if resp.WorkerName == "" || resp.Response == "" {
		return nil, fmt.Errorf("%w: workerName and response are required", model.ErrInvalidReport)
	}
	resp.RespondedAt = w.now().UTC()

	rec, err := w.store.Respond(ctx, reportID, resp)
	if err != nil {
		return nil, err
	}
	w.log.Info("escalation responded", "reportId", reportID, "worker", resp.WorkerName)

	if phone := rec.PatientInfo.Phone; phone != "" {
		w.notifyPatient(ctx, rec, phone)
	}
	return rec, nil
}

func (w *Workflow) notifyPatient(ctx context.Context, rec *model.EscalationRecord, phone string) {
	body, err := w.renderer.RenderWorkerResponse(rec.Response, rec.Language)
	if err != nil {
		w.log.Error("failed to render worker response", "reportId", rec.ReportID, "error", err)
		return
	}
	d := w.deliverer.Deliver(ctx, []notification.Message{{Recipient: phone, Body: body}})
	if d.Sent == 0 {
		w.log.Warn("patient notification not delivered", "reportId", rec.ReportID, "phone", phone)
	}
}

// List is the health-worker dashboard read model
func (w *Workflow) List(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error) {
	if f.Language != "" {
		f.Language = notification.NormalizeLanguage(f.Language)
	}
	return w.store.List(ctx, f)
}
