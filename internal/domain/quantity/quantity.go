// Package quantity derives the billable multiplier of a request, one strategy per service kind.
package quantity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/schedule"
)

var sixty = decimal.NewFromInt(60)

// Calculator computes the multiplier of a validated request.
type Calculator interface {
	Quantity(ctx context.Context, req model.CostRequest, provider calendar.Provider) (decimal.Decimal, error)
}

// CalculatorFunc adapts a function to Calculator.
type CalculatorFunc func(ctx context.Context, req model.CostRequest, provider calendar.Provider) (decimal.Decimal, error)

// Quantity calls f.
func (f CalculatorFunc) Quantity(ctx context.Context, req model.CostRequest, provider calendar.Provider) (decimal.Decimal, error) {
	return f(ctx, req, provider)
}

var calculators = map[model.ServiceKind]Calculator{
	model.KindCoverage:     CalculatorFunc(Coverage),
	model.KindInspection:   CalculatorFunc(Inspection),
	model.KindIntervention: CalculatorFunc(Intervention),
	model.KindFlatFee:      CalculatorFunc(FlatFee),
}

// ForKind returns the calculator of kind.
func ForKind(kind model.ServiceKind) (Calculator, error) {
	c, ok := calculators[kind]
	if !ok {
		return nil, model.Invalid("no quantity rule for service kind %q", kind)
	}
	return c, nil
}

// Coverage is covered hours across the range times agents.
func Coverage(ctx context.Context, req model.CostRequest, provider calendar.Provider) (decimal.Decimal, error) {
	w, err := schedule.NewWalker(ctx, &req.Schedule, schedule.RangeOf(req), provider)
	if err != nil {
		return decimal.Zero, err
	}
	minutes := 0
	for w.Next() {
		minutes += w.Day().Window.Minutes()
	}
	if err := w.Err(); err != nil {
		return decimal.Zero, err
	}
	return agentHours(int64(minutes), req.Agents()), nil
}

// Inspection is the visit count: per day, ceil(covered hours / cadence) when
// anything is covered. A window shorter than the cadence still gets one visit.
func Inspection(ctx context.Context, req model.CostRequest, provider calendar.Provider) (decimal.Decimal, error) {
	if !req.CadenceHours.IsPositive() {
		return decimal.Zero, model.Invalid("inspection cadence must be positive, got %s", req.CadenceHours)
	}
	cadence := req.CadenceHours.Mul(sixty)
	w, err := schedule.NewWalker(ctx, &req.Schedule, schedule.RangeOf(req), provider)
	if err != nil {
		return decimal.Zero, err
	}
	visits := decimal.Zero
	for w.Next() {
		covered := w.Day().Window.Minutes()
		if covered == 0 {
			continue
		}
		visits = visits.Add(decimal.NewFromInt(int64(covered)).Div(cadence).Ceil())
	}
	if err := w.Err(); err != nil {
		return decimal.Zero, err
	}
	return visits, nil
}

// Intervention is the event duration in hours times agents; the schedule is ignored.
func Intervention(_ context.Context, req model.CostRequest, _ calendar.Provider) (decimal.Decimal, error) {
	if req.StartTime == nil || req.EndTime == nil {
		return decimal.Zero, model.Invalid("intervention needs start and end time")
	}
	from := model.DateOf(req.StartDate)
	to := model.DateOf(req.EndDate)
	if to.Before(from) {
		return decimal.Zero, model.Invalid("end date %s is before start date %s",
			to.Format(model.DateLayout), from.Format(model.DateLayout))
	}
	days := int64(to.Sub(from) / (24 * time.Hour))
	minutes := days*int64(model.EndOfDay) + int64(*req.EndTime-*req.StartTime)
	if minutes < 0 {
		return decimal.Zero, model.Invalid("intervention ends at %s before it starts at %s", *req.EndTime, *req.StartTime)
	}
	return agentHours(minutes, req.Agents()), nil
}

// agentHours scales by agents before dividing so whole agent-hours stay exact.
func agentHours(minutes int64, agents int) decimal.Decimal {
	return decimal.NewFromInt(minutes * int64(agents)).Div(sixty)
}

// FlatFee is one unit per request; only the range is checked.
func FlatFee(_ context.Context, req model.CostRequest, _ calendar.Provider) (decimal.Decimal, error) {
	if model.DateOf(req.EndDate).Before(model.DateOf(req.StartDate)) {
		return decimal.Zero, model.Invalid("end date %s is before start date %s",
			req.EndDate.Format(model.DateLayout), req.StartDate.Format(model.DateLayout))
	}
	return decimal.NewFromInt(1), nil
}
