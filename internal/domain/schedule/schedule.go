// Package schedule resolves weekly operating hours onto calendar days.
package schedule

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/model"
)

var sixty = decimal.NewFromInt(60)

// Window is the effective covered interval of one day, [Start, End).
// End before Start means nothing is covered.
type Window struct {
	Start model.Clock
	End   model.Clock
}

// Minutes returns the covered minutes, never negative.
func (w Window) Minutes() int {
	if w.End <= w.Start {
		return 0
	}
	return int(w.End - w.Start)
}

// Hours returns the covered time in hours.
func (w Window) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(w.Minutes())).Div(sixty)
}

// Empty reports whether the window covers no time.
func (w Window) Empty() bool { return w.Minutes() == 0 }

// Resolve returns the window of date: the holiday entry when provider says the
// date is a holiday, the weekday entry otherwise. The bool reports the holiday.
func Resolve(ctx context.Context, week *model.Week, date time.Time, provider calendar.Provider) (Window, bool, error) {
	holiday, err := provider.IsHoliday(ctx, date)
	if err != nil {
		return Window{}, false, model.DependencyFailure("holiday calendar", err)
	}
	key := model.WeekdayKey(date.Weekday())
	if holiday {
		key = model.Holiday
	}
	start, end := week.Entry(key).Span()
	return Window{Start: start, End: end}, holiday, nil
}
