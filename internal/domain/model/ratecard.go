package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateCardEntry is a priced agreement for one client and service kind,
// optionally scoped to a service point and/or supplier.
type RateCardEntry struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"clientId"`
	Kind          ServiceKind     `json:"kind"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	ClientRate    decimal.Decimal `json:"clientRate"`
	SupplierRate  decimal.Decimal `json:"supplierRate"`
	LocationID    string          `json:"locationId,omitempty"`
	SupplierID    string          `json:"supplierId,omitempty"`
	ValidFrom     time.Time       `json:"validFrom"`
	ValidTo       *time.Time      `json:"validTo,omitempty"`
}

// Validate checks the rate card invariants.
func (e RateCardEntry) Validate() error {
	if e.ClientID == "" {
		return Invalid("rate card %s: client id is required", e.ID)
	}
	if !e.Kind.Valid() {
		return Invalid("rate card %s: unknown service kind %q", e.ID, e.Kind)
	}
	if e.ClientRate.IsNegative() || e.SupplierRate.IsNegative() {
		return Invalid("rate card %s: rates must not be negative", e.ID)
	}
	if e.ValidTo != nil && DateOf(*e.ValidTo).Before(DateOf(e.ValidFrom)) {
		return Invalid("rate card %s: valid_to before valid_from", e.ID)
	}
	return nil
}

// ValidOn reports whether date falls in [ValidFrom, ValidTo]. An open ValidTo never expires.
func (e RateCardEntry) ValidOn(date time.Time) bool {
	d := DateOf(date)
	if d.Before(DateOf(e.ValidFrom)) {
		return false
	}
	return e.ValidTo == nil || !d.After(DateOf(*e.ValidTo))
}

// Specificity ranks the scope of the entry for a request scope; 0 means the
// entry is scoped to a different location or supplier and cannot apply.
func (e RateCardEntry) Specificity(locationID, supplierID string) int {
	if e.LocationID != "" && e.LocationID != locationID {
		return 0
	}
	if e.SupplierID != "" && e.SupplierID != supplierID {
		return 0
	}
	switch {
	case e.LocationID != "" && e.SupplierID != "":
		return 4
	case e.LocationID != "":
		return 3
	case e.SupplierID != "":
		return 2
	default:
		return 1
	}
}
