package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
)

// fakeFetcher replays a fixed set of messages, then blocks until cancelled
type fakeFetcher struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	drained   chan struct{}
}

func newFakeFetcher(values ...string) *fakeFetcher {
	f := &fakeFetcher{drained: make(chan struct{})}
	for i, v := range values {
		f.messages = append(f.messages, kafka.Message{Offset: int64(i), Value: []byte(v)})
	}
	return f
}

func (f *fakeFetcher) Consume(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeFetcher) Commit(ctx context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg.Offset)
	if len(f.messages) == 0 {
		select {
		case <-f.drained:
		default:
			close(f.drained)
		}
	}
	return nil
}

type recordingSubmitter struct {
	mu     sync.Mutex
	inputs []model.ReportInput
}

func (s *recordingSubmitter) SubmitReport(ctx context.Context, in model.ReportInput) (*model.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(in.Symptoms) == 0 {
		return nil, errors.Join(model.ErrInvalidReport, errors.New("no symptoms"))
	}
	s.inputs = append(s.inputs, in)
	return &model.SubmitResult{ReportID: "r"}, nil
}

func TestReportIngesterCommitsEveryMessage(t *testing.T) {
	fetcher := newFakeFetcher(
		`{"symptoms":["fever"],"location":"Guwahati"}`,
		`garbage`,
		`{"symptoms":[],"location":"Guwahati"}`,
		`{"symptoms":["cough"],"location":"Pune"}`,
	)
	sub := &recordingSubmitter{}
	ing := NewReportIngester(fetcher, sub, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- ing.Run(ctx) }()

	<-fetcher.drained
	cancel()
	assert.NoError(t, <-done)

	assert.Equal(t, []int64{0, 1, 2, 3}, fetcher.committed)
	assert.Len(t, sub.inputs, 2)
	assert.Equal(t, "Pune", sub.inputs[1].Location)
}
