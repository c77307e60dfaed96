package schedule

import (
	"context"
	"time"

	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/model"
)

// Range is an inclusive date range with optional clamps on the first and last day.
type Range struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime *model.Clock
	EndTime   *model.Clock
}

// RangeOf extracts the walked range of a request.
func RangeOf(req model.CostRequest) Range {
	return Range{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

// Day is one walked calendar day and its effective window.
type Day struct {
	Date    time.Time
	Holiday bool
	Window  Window
}

// Walker iterates the days of a Range in order. It is lazy and single-use:
//
//	w, err := schedule.NewWalker(ctx, &week, rng, cal)
//	for w.Next() {
//		day := w.Day()
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	ctx      context.Context
	week     *model.Week
	rng      Range
	provider calendar.Provider

	next time.Time
	last time.Time
	day  Day
	err  error
	done bool
}

// NewWalker validates the range and returns a walker positioned before the first day.
func NewWalker(ctx context.Context, week *model.Week, rng Range, provider calendar.Provider) (*Walker, error) {
	first := model.DateOf(rng.StartDate)
	last := model.DateOf(rng.EndDate)
	if last.Before(first) {
		return nil, model.Invalid("end date %s is before start date %s",
			last.Format(model.DateLayout), first.Format(model.DateLayout))
	}
	return &Walker{
		ctx:      ctx,
		week:     week,
		rng:      rng,
		provider: provider,
		next:     first,
		last:     last,
	}, nil
}

// Next advances to the next day. It returns false at the end of the range or on error.
func (w *Walker) Next() bool {
	if w.done {
		return false
	}
	if w.next.After(w.last) {
		w.done = true
		return false
	}
	if err := w.ctx.Err(); err != nil {
		w.err, w.done = err, true
		return false
	}

	date := w.next
	win, holiday, err := Resolve(w.ctx, w.week, date, w.provider)
	if err != nil {
		w.err, w.done = err, true
		return false
	}
	if date.Equal(model.DateOf(w.rng.StartDate)) && w.rng.StartTime != nil && *w.rng.StartTime > win.Start {
		win.Start = *w.rng.StartTime
	}
	if date.Equal(w.last) && w.rng.EndTime != nil && *w.rng.EndTime < win.End {
		win.End = *w.rng.EndTime
	}

	w.day = Day{Date: date, Holiday: holiday, Window: win}
	w.next = date.AddDate(0, 0, 1)
	return true
}

// Day returns the current day. Only valid after Next returned true.
func (w *Walker) Day() Day { return w.day }

// Err returns the error that stopped the walk, if any.
func (w *Walker) Err() error { return w.err }
