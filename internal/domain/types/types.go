// Package types contains the wire shapes shared by the HTTP API and the CLI.
package types

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/tariffa/internal/domain/model"
)

// sentinels are placeholder values front ends send for "no selection".
var sentinels = map[string]struct{}{
	"":             {},
	"none":         {},
	"null":         {},
	"nil":          {},
	"undefined":    {},
	"nessuno":      {},
	"nessuna":      {},
	"-":            {},
	"--":           {},
	"__none__":     {},
	"seleziona...": {},
	"seleziona":    {},
}

// Scope normalizes an optional scope id: sentinels become the empty string.
func Scope(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := sentinels[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

// QuoteRequest mirrors a persisted service request.
type QuoteRequest struct {
	Type           string             `json:"type"`
	ClientID       string             `json:"client_id"`
	ServicePointID string             `json:"service_point_id"`
	SupplierID     string             `json:"fornitore_id"`
	StartDate      string             `json:"start_date"`
	StartTime      string             `json:"start_time,omitempty"`
	EndDate        string             `json:"end_date"`
	EndTime        string             `json:"end_time,omitempty"`
	NumAgents      int                `json:"num_agents,omitempty"`
	CadenceHours   decimal.Decimal    `json:"cadence_hours,omitempty"`
	InspectionType string             `json:"inspection_type,omitempty"`
	DailyHours     []model.DailyHours `json:"daily_hours_config,omitempty"`
}

// ToCostRequest converts the wire shape into an engine request.
// Kinds that ignore the schedule accept an empty daily_hours_config.
func (q QuoteRequest) ToCostRequest() (model.CostRequest, error) {
	kind, err := model.ParseServiceKind(q.Type)
	if err != nil {
		return model.CostRequest{}, err
	}
	start, err := model.ParseDate(q.StartDate)
	if err != nil {
		return model.CostRequest{}, err
	}
	end := start
	if strings.TrimSpace(q.EndDate) != "" {
		if end, err = model.ParseDate(q.EndDate); err != nil {
			return model.CostRequest{}, err
		}
	}
	req := model.CostRequest{
		Kind:           kind,
		ClientID:       strings.TrimSpace(q.ClientID),
		LocationID:     Scope(q.ServicePointID),
		SupplierID:     Scope(q.SupplierID),
		StartDate:      start,
		EndDate:        end,
		AgentCount:     q.NumAgents,
		CadenceHours:   q.CadenceHours,
		InspectionType: strings.TrimSpace(q.InspectionType),
	}
	if req.StartTime, err = optionalClock(q.StartTime); err != nil {
		return model.CostRequest{}, err
	}
	if req.EndTime, err = optionalClock(q.EndTime); err != nil {
		return model.CostRequest{}, err
	}
	if len(q.DailyHours) > 0 || kind == model.KindCoverage || kind == model.KindInspection {
		if req.Schedule, err = model.WeekFromDailyHours(q.DailyHours); err != nil {
			return model.CostRequest{}, err
		}
	}
	return req, nil
}

func optionalClock(s string) (*model.Clock, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	c, err := model.ParseClock(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Quote statuses.
const (
	StatusPriced        = string(model.StatusPriced)
	StatusMissingTariff = string(model.StatusMissingTariff)
)

// QuoteResult is the priced part of a quote.
type QuoteResult struct {
	Multiplier     decimal.Decimal `json:"multiplier"`
	ClientRate     decimal.Decimal `json:"clientRate"`
	SupplierRate   decimal.Decimal `json:"supplierRate"`
	Amount         decimal.Decimal `json:"amount"`
	SupplierAmount decimal.Decimal `json:"supplierAmount"`
	UnitOfMeasure  string          `json:"unitOfMeasure,omitempty"`
	RateCardID     string          `json:"rateCardId"`
}

// QuoteResponse carries a priced result, or a null result when no rate card applies.
type QuoteResponse struct {
	Status     string          `json:"status"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Result     *QuoteResult    `json:"result"`
}

// NewQuoteResponse renders an engine outcome. multiplier is reported even without a rate.
func NewQuoteResponse(res *model.CostResult, multiplier decimal.Decimal) QuoteResponse {
	if res == nil {
		return QuoteResponse{Status: StatusMissingTariff, Multiplier: multiplier}
	}
	return QuoteResponse{
		Status:     StatusPriced,
		Multiplier: res.Multiplier,
		Result: &QuoteResult{
			Multiplier:     res.Multiplier,
			ClientRate:     res.Rate.ClientRate,
			SupplierRate:   res.Rate.SupplierRate,
			Amount:         res.Amount(),
			SupplierAmount: res.SupplierAmount(),
			UnitOfMeasure:  res.Rate.UnitOfMeasure,
			RateCardID:     res.Rate.ID,
		},
	}
}

// ReconciliationItem is one line submitted for bulk pricing.
type ReconciliationItem struct {
	ItemID string `json:"item_id"`
	QuoteRequest
}

// ReconciliationRequest is the body of a bulk pricing submission.
type ReconciliationRequest struct {
	Items []ReconciliationItem `json:"items"`
}

// ModelItems converts wire items to model items; conversion failures are carried
// on the item so they show up as invalid lines in the report.
func (r ReconciliationRequest) ModelItems() []model.Item {
	out := make([]model.Item, 0, len(r.Items))
	for _, it := range r.Items {
		req, err := it.ToCostRequest()
		out = append(out, model.Item{ID: strings.TrimSpace(it.ItemID), Request: req, Reject: err})
	}
	return out
}

// ReconciliationAck acknowledges a submission.
type ReconciliationAck struct {
	RunID    string   `json:"runId"`
	Accepted int      `json:"accepted"`
	Rejected []string `json:"rejected"`
}
