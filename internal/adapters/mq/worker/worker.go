// Package worker prices queued reconciliation jobs concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/pkg/logger"
	"github.com/okian/tariffa/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultJobTimeout       = 30 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

var tracer = otel.Tracer("github.com/okian/tariffa/internal/adapters/mq/worker")

// Job is what workers read off the queue.
type Job = model.Job

// Pricer prices one request. A nil result with a nil error means no rate card applies;
// the multiplier is still reported.
type Pricer interface {
	Price(ctx context.Context, req model.CostRequest) (*model.CostResult, decimal.Decimal, error)
}

// Recorder stores the outcome of a job.
type Recorder interface {
	Record(ctx context.Context, runID string, line model.Line) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	pricer     Pricer
	recorder   Recorder
	name       string
	jobTimeout time.Duration

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, pricer Pricer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		pricer:     pricer,
		recorder:   recorder,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when the queue is closed and drained,
// when Shutdown is called, or when ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		// a stopped worker leaves the backlog alone even when jobs are ready
		select {
		case <-w.shutdown:
			return
		default:
		}
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error recording job", logger.String("run_id", j.RunID),
					logger.String("item_id", j.Item.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process prices one job and records its line.
func (w *InMemoryWorker) process(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, span := tracer.Start(ctx, "reconciliation.job")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", j.RunID),
		attribute.String("item.id", j.Item.ID),
		attribute.String("service.kind", string(j.Item.Request.Kind)),
	)

	line := w.price(ctx, j)
	span.SetAttributes(attribute.String("line.status", string(line.Status)))
	if line.Status == model.StatusError {
		span.SetStatus(codes.Error, line.Error)
	}
	metrics.RecordReconciliationLine(string(line.Status))

	if err := w.recorder.Record(ctx, j.RunID, line); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record %s/%s: %w", j.RunID, j.Item.ID, err)
	}
	return nil
}

func (w *InMemoryWorker) price(ctx context.Context, j Job) model.Line {
	line := model.Line{ItemID: j.Item.ID, Kind: j.Item.Request.Kind}
	if j.Item.Reject != nil {
		line.Status = model.StatusInvalid
		line.Error = j.Item.Reject.Error()
		return line
	}

	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	res, multiplier, err := w.pricer.Price(ctx, j.Item.Request)
	line.Multiplier = multiplier
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		line.Status = model.StatusInvalid
		line.Error = err.Error()
	case err != nil:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "pricing_error")
		w.logger.Warn(ctx, "pricing failed", logger.String("run_id", j.RunID),
			logger.String("item_id", j.Item.ID), logger.Error(err))
		line.Status = model.StatusError
		line.Error = err.Error()
	case res == nil:
		line.Status = model.StatusMissingTariff
	default:
		line.Status = model.StatusPriced
		line.Result = res
		line.Multiplier = res.Multiplier
	}
	return line
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. workerCount < 1 picks a CPU-based default.
func NewPool(workerCount int, queue Queue, pricer Pricer, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, pricer, recorder, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Stop stops all workers after their current job without draining the queue.
func (p *Pool) Stop(ctx context.Context) {
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker stop timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
