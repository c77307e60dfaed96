package model

import "github.com/shopspring/decimal"

// CostResult is a priced service. A nil *CostResult means no rate card applies,
// which is distinct from a zero multiplier.
type CostResult struct {
	Multiplier decimal.Decimal
	Rate       RateCardEntry
}

// Amount is the client-side cost.
func (r *CostResult) Amount() decimal.Decimal {
	return r.Multiplier.Mul(r.Rate.ClientRate)
}

// SupplierAmount is the supplier-side cost.
func (r *CostResult) SupplierAmount() decimal.Decimal {
	return r.Multiplier.Mul(r.Rate.SupplierRate)
}

// Margin is Amount minus SupplierAmount.
func (r *CostResult) Margin() decimal.Decimal {
	return r.Amount().Sub(r.SupplierAmount())
}
