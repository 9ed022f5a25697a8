package outbreak

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/notification"
	"github.com/smukkama/symptom-intel/internal/store"
	"github.com/smukkama/symptom-intel/internal/taxonomy"
)

const lockStripes = 64

// Deliverer fans a batch of messages out. *notification.Dispatcher implements it.
type Deliverer interface {
	Deliver(ctx context.Context, msgs []notification.Message) notification.Delivery
}

// Detector runs the correlator for a location and registers what it finds.
// Evaluation and registry creation for one location are serialized by a
// striped lock; notification happens after the lock is released.
type Detector struct {
	catalog       *taxonomy.Catalog
	reports       store.ReportStore
	registry      store.OutbreakRegistry
	subscribers   store.SubscriberRegistry
	renderer      *notification.Renderer
	deliverer     Deliverer
	subscriberCap int
	log           *logger.Logger
	now           func() time.Time

	locks [lockStripes]sync.Mutex
}

func NewDetector(
	catalog *taxonomy.Catalog,
	reports store.ReportStore,
	registry store.OutbreakRegistry,
	subscribers store.SubscriberRegistry,
	renderer *notification.Renderer,
	deliverer Deliverer,
	subscriberCap int,
	log *logger.Logger,
) *Detector {
	return &Detector{
		catalog:       catalog,
		reports:       reports,
		registry:      registry,
		subscribers:   subscribers,
		renderer:      renderer,
		deliverer:     deliverer,
		subscriberCap: subscriberCap,
		log:           log,
		now:           time.Now,
	}
}

// WithClock overrides the time source
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

func (d *Detector) lockFor(location string) *sync.Mutex {
	hash := crc32.ChecksumIEEE([]byte(model.LocationKey(location)))
	return &d.locks[hash%lockStripes]
}

type pendingAlert struct {
	outbreak    *model.OutbreakRecord
	subscribers []*model.Subscriber
}

// Evaluate correlates the location's recent reports and returns the
// outbreaks newly created by this call.
func (d *Detector) Evaluate(ctx context.Context, location string) ([]*model.OutbreakRecord, error) {
	// Outbreaks registered before a failure still get their alerts.
	pending, err := d.detect(ctx, location)

	created := make([]*model.OutbreakRecord, 0, len(pending))
	for _, p := range pending {
		sent := d.alert(ctx, p)
		if sent > 0 {
			if err := d.registry.SetAlertsSent(ctx, p.outbreak.ID, sent); err != nil {
				d.log.Error("failed to record alerts sent", "outbreakId", p.outbreak.ID, "error", err)
			} else {
				p.outbreak.AlertsSent = sent
			}
		}
		created = append(created, p.outbreak)
	}
	return created, err
}

// detect holds the location lock while reading the window, creating
// registry entries and choosing recipients.
func (d *Detector) detect(ctx context.Context, location string) ([]pendingAlert, error) {
	mu := d.lockFor(location)
	mu.Lock()
	defer mu.Unlock()

	now := d.now().UTC()
	window, err := d.reports.Window(ctx, location, now.Add(-d.catalog.MaxWindow()))
	if err != nil {
		return nil, fmt.Errorf("failed to read reports for %s: %w", location, err)
	}

	var pending []pendingAlert
	for _, c := range Correlate(d.catalog, window, now) {
		rec, created, err := d.registry.CreateIfAbsent(ctx, &model.OutbreakRecord{
			ID:         uuid.New().String(),
			Location:   location,
			DiseaseID:  c.DiseaseID,
			Disease:    c.Disease,
			CaseCount:  c.CaseCount,
			Severity:   c.Severity,
			Symptoms:   c.Symptoms,
			DetectedAt: now,
			Status:     model.OutbreakActive,
		})
		if errors.Is(err, model.ErrInvariantViolation) {
			d.log.Error("outbreak registry invariant violated", "location", location, "diseaseId", c.DiseaseID, "error", err)
			continue
		}
		if err != nil {
			return pending, fmt.Errorf("failed to register outbreak %s: %w", c.DiseaseID, err)
		}
		if !created {
			continue
		}

		d.log.Info("outbreak detected",
			"outbreakId", rec.ID,
			"location", location,
			"diseaseId", rec.DiseaseID,
			"caseCount", rec.CaseCount,
			"severity", string(rec.Severity))

		subs, err := d.subscribers.Matching(ctx, location, d.subscriberCap)
		if err != nil {
			d.log.Error("failed to load subscribers", "location", location, "error", err)
		}
		pending = append(pending, pendingAlert{outbreak: rec, subscribers: subs})
	}
	return pending, nil
}

// alert renders one message per subscriber language and returns the number
// of successful deliveries.
func (d *Detector) alert(ctx context.Context, p pendingAlert) int {
	if len(p.subscribers) == 0 {
		return 0
	}

	rendered := make(map[string]string)
	msgs := make([]notification.Message, 0, len(p.subscribers))
	for _, s := range p.subscribers {
		body, ok := rendered[s.Language]
		if !ok {
			var err error
			body, err = d.renderer.RenderOutbreak(p.outbreak, s.Language)
			if err != nil {
				d.log.Error("failed to render outbreak alert", "outbreakId", p.outbreak.ID, "language", s.Language, "error", err)
				continue
			}
			rendered[s.Language] = body
		}
		msgs = append(msgs, notification.Message{Recipient: s.Phone, Body: body})
	}

	delivery := d.deliverer.Deliver(ctx, msgs)
	d.log.Info("outbreak alerts sent",
		"outbreakId", p.outbreak.ID,
		"sent", delivery.Sent,
		"failed", delivery.Failed,
		"abandoned", delivery.Abandoned)
	return delivery.Sent
}
