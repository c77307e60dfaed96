package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LineStatus is the outcome of pricing one reconciliation item.
type LineStatus string

const (
	StatusPriced        LineStatus = "priced"
	StatusMissingTariff LineStatus = "missing_tariff"
	StatusInvalid       LineStatus = "invalid"
	StatusError         LineStatus = "error"
	StatusRejected      LineStatus = "rejected" // not accepted: duplicate item or queue full
)

// Item is one service submitted for reconciliation. Reject carries a boundary
// failure; such items are reported as invalid without being priced.
type Item struct {
	ID      string
	Request CostRequest
	Reject  error
}

// Job is one item queued for pricing within a run.
type Job struct {
	RunID    string
	Item     Item
	Enqueued time.Time
}

// Line is the priced (or unpriced) outcome of one item.
type Line struct {
	ItemID     string          `json:"itemId"`
	Status     LineStatus      `json:"status"`
	Kind       ServiceKind     `json:"kind,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Result     *CostResult     `json:"-"`
	Error      string          `json:"error,omitempty"`
}

// Totals sums priced lines of a run.
type Totals struct {
	Amount         decimal.Decimal `json:"amount"`
	SupplierAmount decimal.Decimal `json:"supplierAmount"`
	Margin         decimal.Decimal `json:"margin"`
}

// Report is the state of a reconciliation run.
type Report struct {
	RunID       string     `json:"runId"`
	Submitted   int        `json:"submitted"`
	Accepted    int        `json:"accepted"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Lines       []Line     `json:"lines"`
	Totals      Totals     `json:"totals"`
	Missing     []string   `json:"missingTariff"`
}

// Summarize sorts lines by item ID and recomputes totals and the missing-tariff list.
func (r *Report) Summarize() {
	sort.SliceStable(r.Lines, func(i, j int) bool { return r.Lines[i].ItemID < r.Lines[j].ItemID })
	r.Totals = Totals{}
	r.Missing = make([]string, 0)
	for _, l := range r.Lines {
		switch {
		case l.Status == StatusPriced && l.Result != nil:
			r.Totals.Amount = r.Totals.Amount.Add(l.Result.Amount())
			r.Totals.SupplierAmount = r.Totals.SupplierAmount.Add(l.Result.SupplierAmount())
		case l.Status == StatusMissingTariff:
			r.Missing = append(r.Missing, l.ItemID)
		}
	}
	r.Totals.Margin = r.Totals.Amount.Sub(r.Totals.SupplierAmount)
}

// Count returns the number of lines with the given status.
func (r *Report) Count(status LineStatus) int {
	n := 0
	for _, l := range r.Lines {
		if l.Status == status {
			n++
		}
	}
	return n
}
