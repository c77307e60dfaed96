// Package tariff resolves the most specific valid rate card for a request.
package tariff

import (
	"context"
	"sort"
	"time"

	"github.com/okian/tariffa/internal/domain/model"
)

// Query keys a rate-card lookup. Empty LocationID/SupplierID mean no scope.
type Query struct {
	ClientID   string
	Kind       model.ServiceKind
	LocationID string
	SupplierID string
	On         time.Time
}

// QueryOf builds the lookup of a request; the reference date is its start date.
func QueryOf(req model.CostRequest) Query {
	return Query{
		ClientID:   req.ClientID,
		Kind:       req.Kind,
		LocationID: req.LocationID,
		SupplierID: req.SupplierID,
		On:         model.DateOf(req.StartDate),
	}
}

// Source returns candidate rows for a query. It may return rows that do not
// match; the resolver filters again.
type Source interface {
	Candidates(ctx context.Context, q Query) ([]model.RateCardEntry, error)
}

// Resolver picks the winning rate card out of a Source.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver over source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the winning rate card or nil when none applies.
// Source failures are reported as model.ErrDependency.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*model.RateCardEntry, error) {
	rows, err := r.source.Candidates(ctx, q)
	if err != nil {
		return nil, model.DependencyFailure("rate cards", err)
	}
	return Select(rows, q), nil
}

// Select ranks rows for q: location and supplier, then location, then supplier,
// then client-wide. Ties go to the latest ValidFrom and then the smallest ID.
func Select(rows []model.RateCardEntry, q Query) *model.RateCardEntry {
	type ranked struct {
		entry model.RateCardEntry
		tier  int
	}
	var candidates []ranked
	for _, e := range rows {
		if e.ClientID != q.ClientID || e.Kind != q.Kind || !e.ValidOn(q.On) {
			continue
		}
		tier := e.Specificity(q.LocationID, q.SupplierID)
		if tier == 0 {
			continue
		}
		candidates = append(candidates, ranked{entry: e, tier: tier})
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if !a.entry.ValidFrom.Equal(b.entry.ValidFrom) {
			return a.entry.ValidFrom.After(b.entry.ValidFrom)
		}
		return a.entry.ID < b.entry.ID
	})
	best := candidates[0].entry
	return &best
}
