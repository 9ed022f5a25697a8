package queue

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/protocol"
)

// ReportSubmitter is implemented by the engine
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, in model.ReportInput) (*model.SubmitResult, error)
}

// ReportIngester feeds reports from the reports topic into SubmitReport.
// Every fetched message is committed once it has been attempted, so a
// report is ingested at most once.
type ReportIngester struct {
	source    Fetcher
	submitter ReportSubmitter
	log       *logger.Logger
}

func NewReportIngester(source Fetcher, submitter ReportSubmitter, log *logger.Logger) *ReportIngester {
	return &ReportIngester{source: source, submitter: submitter, log: log}
}

// Run consumes until ctx is cancelled
func (r *ReportIngester) Run(ctx context.Context) error {
	r.log.Info("report ingest started")
	for {
		msg, err := r.source.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("report ingest stopped")
				return nil
			}
			r.log.Error("consumer error", "error", err)
			continue
		}

		r.handle(ctx, msg)

		if err := r.source.Commit(ctx, msg); err != nil && ctx.Err() == nil {
			r.log.Error("failed to commit offset", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (r *ReportIngester) handle(ctx context.Context, msg kafka.Message) {
	report, err := protocol.DecodeReportMessage(msg.Value)
	if err != nil {
		r.log.Warn("dropping undecodable report", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}

	res, err := r.submitter.SubmitReport(ctx, report.Input())
	switch {
	case errors.Is(err, model.ErrInvalidReport):
		r.log.Warn("dropping invalid report", "offset", msg.Offset, "source", report.Source, "error", err)
	case err != nil:
		r.log.Error("failed to submit report", "offset", msg.Offset, "error", err)
	default:
		r.log.Debug("ingested report",
			"reportId", res.ReportID,
			"escalationLevel", res.EscalationLevel.String(),
			"newOutbreaks", len(res.NewOutbreaksDetected))
	}
}
