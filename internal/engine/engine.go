// Package engine is the service facade: report ingest, the escalation read
// and response operations, the outbreak read model and subscriptions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smukkama/symptom-intel/internal/escalation"
	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/notification"
	"github.com/smukkama/symptom-intel/internal/outbreak"
	"github.com/smukkama/symptom-intel/internal/store"
	"github.com/smukkama/symptom-intel/internal/triage"
)

// Stores groups the persistence backends the engine runs on
type Stores struct {
	Reports     store.ReportStore
	Outbreaks   store.OutbreakRegistry
	Escalations store.EscalationStore
	Subscribers store.SubscriberRegistry
}

type Engine struct {
	classifier *triage.Classifier
	workflow   *escalation.Workflow
	detector   *outbreak.Detector
	renderer   *notification.Renderer
	stores     Stores
	log        *logger.Logger
	now        func() time.Time
}

func New(
	classifier *triage.Classifier,
	workflow *escalation.Workflow,
	detector *outbreak.Detector,
	renderer *notification.Renderer,
	stores Stores,
	log *logger.Logger,
) *Engine {
	return &Engine{
		classifier: classifier,
		workflow:   workflow,
		detector:   detector,
		renderer:   renderer,
		stores:     stores,
		log:        log,
		now:        time.Now,
	}
}

// WithClock overrides the time source
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SubmitReport classifies a report, stores it, escalates it when needed and
// runs outbreak detection for its location. Escalation and detection run
// concurrently; their notifications are not tied to the caller's context.
func (e *Engine) SubmitReport(ctx context.Context, in model.ReportInput) (*model.SubmitResult, error) {
	symptoms := model.NormalizeSymptoms(in.Symptoms)
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("%w: symptoms are required", model.ErrInvalidReport)
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", model.ErrInvalidReport)
	}

	report := &model.Report{
		ID:       uuid.New().String(),
		Symptoms: symptoms,
		Location: location,
		PatientInfo: model.PatientInfo{
			Name:  strings.TrimSpace(in.PatientInfo.Name),
			Phone: strings.TrimSpace(in.PatientInfo.Phone),
		},
		Language:  notification.NormalizeLanguage(in.Language),
		CreatedAt: e.now().UTC(),
	}
	result := e.classifier.Classify(report.Symptoms)

	if err := e.stores.Reports.Append(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	var (
		g       errgroup.Group
		created []*model.OutbreakRecord
	)
	g.Go(func() error {
		records, err := e.detector.Evaluate(bg, report.Location)
		if err != nil {
			// Detection is retried by the periodic re-evaluation; the
			// report itself is stored.
			e.log.Error("outbreak detection failed", "reportId", report.ID, "location", report.Location, "error", err)
		}
		created = records
		return nil
	})
	g.Go(func() error {
		_, err := e.workflow.Escalate(bg, report, result)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.log.Info("report submitted",
		"reportId", report.ID,
		"location", report.Location,
		"escalationLevel", result.EscalationLevel.String(),
		"matched", len(result.MatchedConditions),
		"newOutbreaks", len(created))

	if result.MatchedConditions == nil {
		result.MatchedConditions = []model.ConditionMatch{}
	}
	if created == nil {
		created = []*model.OutbreakRecord{}
	}
	return &model.SubmitResult{
		ReportID:             report.ID,
		EscalationLevel:      result.EscalationLevel,
		MatchedConditions:    result.MatchedConditions,
		NewOutbreaksDetected: created,
	}, nil
}

// GetEscalations is the health-worker dashboard read model
func (e *Engine) GetEscalations(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error) {
	return e.workflow.List(ctx, f)
}

// RespondToEscalation records a worker's reply for reportID
func (e *Engine) RespondToEscalation(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, fmt.Errorf("%w: reportId is required", model.ErrInvalidReport)
	}
	return e.workflow.Respond(context.WithoutCancel(ctx), reportID, resp)
}

// OutbreakView is an outbreak with its alert text in the requested language
type OutbreakView struct {
	*model.OutbreakRecord
	AlertMessage string `json:"alertMessage"`
}

// GetOutbreaks lists outbreaks, active ones only unless f.Status says otherwise
func (e *Engine) GetOutbreaks(ctx context.Context, f model.OutbreakFilter, language string) ([]OutbreakView, error) {
	if f.Status == "" {
		f.Status = model.OutbreakActive
	}
	records, err := e.stores.Outbreaks.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]OutbreakView, 0, len(records))
	for _, rec := range records {
		msg, err := e.renderer.RenderOutbreak(rec, language)
		if err != nil {
			return nil, err
		}
		out = append(out, OutbreakView{OutbreakRecord: rec, AlertMessage: msg})
	}
	return out, nil
}

// ResolveOutbreak marks an outbreak resolved so its key can be detected again
func (e *Engine) ResolveOutbreak(ctx context.Context, id string) (*model.OutbreakRecord, error) {
	rec, err := e.stores.Outbreaks.Resolve(ctx, id, e.now().UTC())
	if err != nil {
		return nil, err
	}
	e.log.Info("outbreak resolved", "outbreakId", id, "location", rec.Location, "diseaseId", rec.DiseaseID)
	return rec, nil
}

// Subscribe registers phone for outbreak alerts. A blank location means all.
func (e *Engine) Subscribe(ctx context.Context, phone, location, language, name string) (*model.Subscriber, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", model.ErrInvalidReport)
	}
	location = strings.TrimSpace(location)
	if location == "" || strings.EqualFold(location, model.LocationAll) {
		location = model.LocationAll
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown"
	}

	sub := &model.Subscriber{
		Phone:        phone,
		Location:     location,
		Language:     notification.NormalizeLanguage(language),
		Name:         name,
		Active:       true,
		SubscribedAt: e.now().UTC(),
	}
	if err := e.stores.Subscribers.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	e.log.Info("subscribed", "phone", phone, "location", location)
	return sub, nil
}

// Unsubscribe removes phone and reports whether it was subscribed
func (e *Engine) Unsubscribe(ctx context.Context, phone string) (bool, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false, fmt.Errorf("%w: phone is required", model.ErrInvalidReport)
	}
	removed, err := e.stores.Subscribers.Remove(ctx, phone)
	if err != nil {
		return false, err
	}
	e.log.Info("unsubscribed", "phone", phone, "wasSubscribed", removed)
	return removed, nil
}

// IsClientError reports whether err was caused by the caller's input
func IsClientError(err error) bool {
	return errors.Is(err, model.ErrInvalidReport) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrAlreadyResponded)
}
