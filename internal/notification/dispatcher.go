package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smukkama/symptom-intel/internal/logger"
)

// Message is one rendered notification bound for one recipient
type Message struct {
	Recipient string
	Body      string
}

// Delivery summarizes one fan-out
type Delivery struct {
	Sent      int
	Failed    int
	Abandoned int
}

type job struct {
	msg     Message
	results chan<- error
}

// Dispatcher fans notifications out over a fixed pool of workers. Each send
// gets its own timeout; nothing is retried. Stopping the dispatcher abandons
// queued sends.
type Dispatcher struct {
	gateway Gateway
	timeout time.Duration
	log     *logger.Logger

	jobQueue    chan job
	workerCount int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher. Call Start before Deliver.
func NewDispatcher(gateway Gateway, workerCount, queueSize int, timeout time.Duration, log *logger.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 8
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &Dispatcher{
		gateway:     gateway,
		timeout:     timeout,
		log:         log,
		jobQueue:    make(chan job, queueSize),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers
func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.log.Info("notification dispatcher started", "workers", d.workerCount)
}

// Stop cancels in-flight sends and waits for the workers to exit
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.log.Info("notification dispatcher stopped")
}

// Deliver sends every message and blocks until each has an outcome or the
// caller's context or the dispatcher is done.
func (d *Dispatcher) Deliver(ctx context.Context, msgs []Message) Delivery {
	var out Delivery
	if len(msgs) == 0 {
		return out
	}

	results := make(chan error, len(msgs))
	queued := 0
enqueue:
	for _, m := range msgs {
		select {
		case d.jobQueue <- job{msg: m, results: results}:
			queued++
		case <-ctx.Done():
			break enqueue
		case <-d.ctx.Done():
			break enqueue
		}
	}
	out.Abandoned = len(msgs) - queued

	for i := 0; i < queued; i++ {
		select {
		case err := <-results:
			if err != nil {
				out.Failed++
			} else {
				out.Sent++
			}
		case <-ctx.Done():
			out.Abandoned += queued - i
			return out
		case <-d.ctx.Done():
			out.Abandoned += queued - i
			return out
		}
	}
	return out
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case j := <-d.jobQueue:
			j.results <- d.send(id, j.msg)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) send(id int, m Message) error {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	err := d.gateway.Send(ctx, m.Recipient, m.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) && d.ctx.Err() != nil {
			return err
		}
		d.log.Warn("notification failed", "worker", id, "recipient", m.Recipient, "error", err)
	}
	return err
}
