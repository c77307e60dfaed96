// Package costing composes quantities and rate cards into priced results.
package costing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/okian/tariffa/internal/domain/calendar"
	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/quantity"
	"github.com/okian/tariffa/internal/domain/tariff"
)

// Compose pairs a multiplier with its rate. A nil rate yields a nil result.
func Compose(multiplier decimal.Decimal, rate *model.RateCardEntry) *model.CostResult {
	if rate == nil {
		return nil
	}
	return &model.CostResult{Multiplier: multiplier, Rate: *rate}
}

// Engine prices cost requests. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	holidays calendar.Provider
	resolver *tariff.Resolver
}

// NewEngine creates an engine over a holiday provider and a rate-card source.
func NewEngine(holidays calendar.Provider, rates tariff.Source) *Engine {
	return &Engine{holidays: holidays, resolver: tariff.NewResolver(rates)}
}

// Multiplier validates req and returns its billable quantity.
func (e *Engine) Multiplier(ctx context.Context, req model.CostRequest) (decimal.Decimal, error) {
	if err := req.Validate(); err != nil {
		return decimal.Zero, err
	}
	calc, err := quantity.ForKind(req.Kind)
	if err != nil {
		return decimal.Zero, err
	}
	return calc.Quantity(ctx, req, e.holidays)
}

// Quote prices req. It returns (nil, nil) when no rate card applies.
func (e *Engine) Quote(ctx context.Context, req model.CostRequest) (*model.CostResult, error) {
	result, _, err := e.Price(ctx, req)
	return result, err
}

// Price is Quote that also returns the multiplier when no rate card applies.
func (e *Engine) Price(ctx context.Context, req model.CostRequest) (*model.CostResult, decimal.Decimal, error) {
	multiplier, err := e.Multiplier(ctx, req)
	if err != nil {
		return nil, decimal.Zero, err
	}
	rate, err := e.resolver.Resolve(ctx, tariff.QueryOf(req))
	if err != nil {
		return nil, multiplier, err
	}
	return Compose(multiplier, rate), multiplier, nil
}
