// Package repository holds the rate-card stores and the reconciliation report store.
package repository

import (
	"context"

	"github.com/okian/tariffa/internal/domain/model"
	"github.com/okian/tariffa/internal/domain/tariff"
)

// RateStore serves rate-card candidates to the resolver.
type RateStore interface {
	tariff.Source

	// Name identifies the store in metrics and logs.
	Name() string
}

// RateWriter is implemented by stores that accept new rate cards.
type RateWriter interface {
	Put(ctx context.Context, entries ...model.RateCardEntry) error
}

// matches is the candidate filter shared by the in-memory stores; the resolver
// re-applies it, so stores may be looser but never stricter.
func matches(e model.RateCardEntry, q tariff.Query) bool { //nolint:gocritic // entries are small value types
	return e.ClientID == q.ClientID &&
		e.Kind == q.Kind &&
		e.ValidOn(q.On) &&
		e.Specificity(q.LocationID, q.SupplierID) > 0
}
