// Package service wires the cost engine, rate stores and reconciliation
// pipeline behind the operations used by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	jobqueue "github.com/okian/tariffa/internal/adapters/mq/queue"
	workerpool "github.com/okian/tariffa/internal/adapters/mq/worker"
	repository "github.com/okian/tariffa/internal/adapters/repository"
	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/costing"
	"github.com/okian/tariffa/internal/domain/dedupe"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/types"
	"github.com/okian/tariffa/pkg/logger"
	"github.com/okian/tariffa/pkg/metrics"
)

var tracer = otel.Tracer("github.com/okian/tariffa/internal/app")

// Quote outcomes used as metric labels.
const (
	outcomePriced  = "priced"
	outcomeMissing = "missing_tariff"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Service implements the API dependencies for the cost engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	calendar *calendar.Calendar
	rates    repository.RateStore
	engine   *costing.Engine
	deduper  dedupe.Deduper
	queue    *jobqueue.InMemoryQueue
	pool     *workerpool.Pool
	reports  *repository.ReportStore

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxRuns      int
	locale       string
	quoteTimeout time.Duration
	jobTimeout   time.Duration

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of reconciliation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the reconciliation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many item keys the deduper remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRuns caps the number of retained reconciliation reports.
func WithMaxRuns(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRuns = n
		}
	}
}

// WithLocale selects the holiday calendar locale.
func WithLocale(locale string) Option {
	return func(s *Service) {
		if locale != "" {
			s.locale = locale
		}
	}
}

// WithCalendar sets a prebuilt holiday calendar; it wins over WithLocale.
func WithCalendar(c *calendar.Calendar) Option {
	return func(s *Service) {
		if c != nil {
			s.calendar = c
		}
	}
}

// WithRateStore sets the rate card store. The default is an empty memory store.
func WithRateStore(store repository.RateStore) Option {
	return func(s *Service) {
		if store != nil {
			s.rates = store
		}
	}
}

// WithQuoteTimeout bounds a single quote, including rate lookups.
func WithQuoteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.quoteTimeout = d
		}
	}
}

// WithJobTimeout bounds the pricing of one reconciliation item.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10000,
		dedupeSize:   50000,
		maxRuns:      1000,
		locale:       calendar.DefaultLocale,
		quoteTimeout: 5 * time.Second,
		jobTimeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and starts the reconciliation workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.calendar == nil {
		cal, err := calendar.New(s.locale)
		if err != nil {
			return fmt.Errorf("holiday calendar: %w", err)
		}
		s.calendar = cal
	}
	if s.rates == nil {
		s.rates = repository.NewMemoryRateStore()
	}

	s.engine = costing.NewEngine(s.calendar, s.rates)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.reports = repository.NewReportStore(repository.WithMaxRuns(s.maxRuns))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine, s.reports,
		workerpool.WithJobTimeout(s.jobTimeout),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "cost service started",
		logger.String("locale", s.calendar.Locale()),
		logger.String("rateStore", s.rates.Name()),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for queued items to be priced. When ctx
// ends first the workers stop after their current item.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping cost service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "reconciliation workers did not drain; abandoning backlog", logger.Error(err))
		s.pool.Stop(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "cost service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Quote prices one request. A missing rate card is not an error: the response
// carries the missing_tariff status and a null result.
func (s *Service) Quote(ctx context.Context, in types.QuoteRequest) (types.QuoteResponse, error) { //nolint:gocritic // hugeParam: wire value
	if !s.running() {
		return types.QuoteResponse{}, ErrNotStarted
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "quote")
	defer span.End()

	req, err := in.ToCostRequest()
	if err != nil {
		s.finishQuote(ctx, span, "", outcomeInvalid, start, err)
		return types.QuoteResponse{}, err
	}
	span.SetAttributes(
		attribute.String("service.kind", string(req.Kind)),
		attribute.String("client.id", req.ClientID),
	)

	qctx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()

	res, multiplier, err := s.engine.Price(qctx, req)
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		s.finishQuote(ctx, span, string(req.Kind), outcomeInvalid, start, err)
		return types.QuoteResponse{}, err
	case err != nil:
		s.logger.Error(ctx, "quote failed", logger.String("kind", string(req.Kind)),
			logger.String("client_id", req.ClientID), logger.Error(err))
		s.finishQuote(ctx, span, string(req.Kind), outcomeError, start, err)
		return types.QuoteResponse{}, err
	case res == nil:
		s.logger.Debug(ctx, "no rate card applies", logger.String("kind", string(req.Kind)),
			logger.String("client_id", req.ClientID), logger.String("location_id", req.LocationID))
		s.finishQuote(ctx, span, string(req.Kind), outcomeMissing, start, nil)
	default:
		s.finishQuote(ctx, span, string(req.Kind), outcomePriced, start, nil)
	}
	return types.NewQuoteResponse(res, multiplier), nil
}

func (s *Service) finishQuote(_ context.Context, span trace.Span, kind, outcome string, start time.Time, err error) {
	if kind == "" {
		kind = "unknown"
	}
	span.SetAttributes(attribute.String("quote.outcome", outcome))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.RecordQuote(kind, outcome, float64(time.Since(start).Milliseconds()))
}

// SubmitReconciliation queues items for pricing under a new run. Duplicate item
// IDs and items that do not fit in the queue are rejected and reported as such.
func (s *Service) SubmitReconciliation(ctx context.Context, items []model.Item) (types.ReconciliationAck, error) {
	if !s.running() {
		return types.ReconciliationAck{}, ErrNotStarted
	}

	runID := uuid.NewString()
	if err := s.reports.Create(ctx, runID, len(items)); err != nil {
		return types.ReconciliationAck{}, err
	}
	metrics.RecordReconciliationRun()

	ack := types.ReconciliationAck{RunID: runID, Rejected: make([]string, 0)}
	full := false
	for i, it := range items {
		if it.ID == "" {
			it.ID = fmt.Sprintf("item-%d", i+1)
		}

		key := dedupe.Key(runID, it.ID)
		var reason string
		switch {
		case s.deduper.SeenAndRecord(ctx, key):
			reason = "duplicate item"
		case full:
			s.deduper.Unrecord(ctx, key)
			reason = "queue full"
		default:
			err := s.queue.Enqueue(ctx, model.Job{RunID: runID, Item: it})
			if err == nil {
				ack.Accepted++
				continue
			}
			s.deduper.Unrecord(ctx, key)
			full = true
			reason = err.Error()
			s.logger.Warn(ctx, "reconciliation backpressure", logger.String("run_id", runID),
				logger.Int("accepted", ack.Accepted), logger.Int("submitted", len(items)), logger.Error(err))
		}

		ack.Rejected = append(ack.Rejected, it.ID)
		line := model.Line{ItemID: it.ID, Status: model.StatusRejected, Kind: it.Request.Kind, Error: reason}
		metrics.RecordReconciliationLine(string(line.Status))
		if err := s.reports.Record(ctx, runID, line); err != nil {
			return ack, fmt.Errorf("record rejected item %s: %w", it.ID, err)
		}
	}

	s.logger.Info(ctx, "reconciliation submitted", logger.String("run_id", runID),
		logger.Int("accepted", ack.Accepted), logger.Int("rejected", len(ack.Rejected)))
	return ack, nil
}

// Reconciliation returns the current report of a run.
func (s *Service) Reconciliation(ctx context.Context, runID string) (model.Report, error) {
	if !s.running() {
		return model.Report{}, ErrNotStarted
	}
	return s.reports.Get(ctx, runID)
}

// Wait blocks until every item of a run is recorded.
func (s *Service) Wait(ctx context.Context, runID string) (model.Report, error) {
	if !s.running() {
		return model.Report{}, ErrNotStarted
	}
	return s.reports.Wait(ctx, runID)
}

// Holidays lists the holidays of year in the configured locale.
func (s *Service) Holidays(year int) ([]calendar.Holiday, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.calendar.Holidays(year), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"locale":      s.locale,
		"locales":     calendar.Locales(),
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["locale"] = s.calendar.Locale()
		stats["rateStore"] = s.rates.Name()
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["runs"] = s.reports.Len()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}
