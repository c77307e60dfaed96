package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tariffa/internal/domain/model"
)

type run struct {
	report model.Report
	done   chan struct{}
}

func (r *run) complete() bool { return len(r.report.Lines) >= r.report.Submitted }

// ReportStore keeps reconciliation runs in memory. A run is done once it has
// one line per submitted item.
type ReportStore struct {
	mu      sync.Mutex
	runs    map[string]*run
	order   []string
	maxRuns int
	now     func() time.Time
}

// NewReportStore creates an empty store.
func NewReportStore(opts ...ReportOption) *ReportStore {
	s := &ReportStore{
		runs: make(map[string]*run),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a run expecting submitted lines. A run with no items is done immediately.
func (s *ReportStore) Create(_ context.Context, runID string, submitted int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; ok {
		return ErrRunExists
	}
	now := s.now().UTC()
	r := &run{
		report: model.Report{RunID: runID, Submitted: submitted, CreatedAt: now, Lines: make([]model.Line, 0, submitted)},
		done:   make(chan struct{}),
	}
	if r.complete() {
		r.report.CompletedAt = &now
		close(r.done)
	}
	s.runs[runID] = r
	s.order = append(s.order, runID)
	s.evict()
	return nil
}

// Record appends a line to a run.
func (s *ReportStore) Record(_ context.Context, runID string, line model.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return ErrRunNotFound
	}
	if r.complete() {
		return ErrRunComplete
	}
	r.report.Lines = append(r.report.Lines, line)
	if r.complete() {
		now := s.now().UTC()
		r.report.CompletedAt = &now
		close(r.done)
	}
	return nil
}

// Get returns a summarized snapshot of a run.
func (s *ReportStore) Get(_ context.Context, runID string) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return model.Report{}, ErrRunNotFound
	}
	return snapshot(r), nil
}

// Wait blocks until the run is done or ctx ends.
func (s *ReportStore) Wait(ctx context.Context, runID string) (model.Report, error) {
	s.mu.Lock()
	r, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return model.Report{}, ErrRunNotFound
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return model.Report{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(r), nil
}

// Len returns the number of retained runs.
func (s *ReportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func snapshot(r *run) model.Report {
	rep := r.report
	rep.Lines = append([]model.Line(nil), r.report.Lines...)
	if rep.Lines == nil {
		rep.Lines = []model.Line{}
	}
	rep.Done = r.complete()
	rep.Accepted = rep.Submitted - rep.Count(model.StatusRejected)
	if rep.CompletedAt != nil {
		at := *rep.CompletedAt
		rep.CompletedAt = &at
	}
	rep.Summarize()
	return rep
}

// evict drops the oldest completed runs above maxRuns. Runs still in flight are kept.
func (s *ReportStore) evict() {
	if s.maxRuns == 0 || len(s.runs) <= s.maxRuns {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if len(s.runs) > s.maxRuns && s.runs[id].complete() {
			delete(s.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
