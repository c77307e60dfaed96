package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CostRequest is one service to be priced. It is built per call and never persisted.
// Empty LocationID/SupplierID mean no scope; sentinel strings are normalized before this point.
type CostRequest struct {
	Kind       ServiceKind
	ClientID   string
	LocationID string
	SupplierID string

	StartDate time.Time
	EndDate   time.Time
	StartTime *Clock // optional clamp on the first day
	EndTime   *Clock // optional clamp on the last day

	AgentCount     int
	CadenceHours   decimal.Decimal
	InspectionType string

	Schedule Week
}

// Agents returns the agent multiplier, defaulting interventions to one agent.
func (r CostRequest) Agents() int {
	if r.Kind == KindIntervention && r.AgentCount == 0 {
		return 1
	}
	return r.AgentCount
}

// Validate rejects requests that cannot be priced.
func (r CostRequest) Validate() error {
	if !r.Kind.Valid() {
		return Invalid("unknown service kind %q", r.Kind)
	}
	if strings.TrimSpace(r.ClientID) == "" {
		return Invalid("client id is required")
	}
	if strings.TrimSpace(r.LocationID) == "" {
		return Invalid("service point id is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return Invalid("start and end date are required")
	}
	if DateOf(r.EndDate).Before(DateOf(r.StartDate)) {
		return Invalid("end date %s is before start date %s",
			r.EndDate.Format(DateLayout), r.StartDate.Format(DateLayout))
	}
	if r.AgentCount < 0 {
		return Invalid("agent count %d is negative", r.AgentCount)
	}
	for _, c := range []*Clock{r.StartTime, r.EndTime} {
		if c != nil && (*c < Midnight || *c > EndOfDay) {
			return Invalid("time of day %s out of range", *c)
		}
	}

	switch r.Kind {
	case KindCoverage:
		if r.AgentCount < 1 {
			return Invalid("coverage needs at least one agent")
		}
	case KindInspection:
		if !r.CadenceHours.IsPositive() {
			return Invalid("inspection cadence must be positive, got %s", r.CadenceHours)
		}
	case KindIntervention:
		if r.StartTime == nil || r.EndTime == nil {
			return Invalid("intervention needs start and end time")
		}
	}
	return r.Schedule.Validate()
}
