// Package model contains the cost engine domain types passed between layers.
package model

import (
	"fmt"
	"strings"
)

// ServiceKind identifies how a service is billed.
type ServiceKind string

const (
	// KindCoverage is continuous on-site guard coverage (piantonamento).
	KindCoverage ServiceKind = "piantonamento"
	// KindInspection is periodic inspection patrols (ispezioni).
	KindInspection ServiceKind = "ispezioni"
	// KindIntervention is a single alarm-response dispatch (intervento).
	KindIntervention ServiceKind = "intervento"
	// KindFlatFee is a flat recurring fee (canone).
	KindFlatFee ServiceKind = "canone"
)

var kindAliases = map[string]ServiceKind{
	"piantonamento": KindCoverage,
	"coverage":      KindCoverage,
	"ispezioni":     KindInspection,
	"ispezione":     KindInspection,
	"inspection":    KindInspection,
	"intervento":    KindIntervention,
	"interventi":    KindIntervention,
	"intervention":  KindIntervention,
	"canone":        KindFlatFee,
	"flat_fee":      KindFlatFee,
	"flatfee":       KindFlatFee,
}

// ParseServiceKind maps a wire value to a ServiceKind, case-insensitively.
func ParseServiceKind(s string) (ServiceKind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown service kind %q", ErrInvalidRequest, s)
}

// Valid reports whether k is one of the known kinds.
func (k ServiceKind) Valid() bool {
	switch k {
	case KindCoverage, KindInspection, KindIntervention, KindFlatFee:
		return true
	}
	return false
}

func (k ServiceKind) String() string { return string(k) }
