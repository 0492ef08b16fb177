// Package warranty derives warranty status from import history. It is
// purely computational: no clocks, no storage, the caller supplies "now".
package warranty

import (
	"math"
	"time"
)

// Status classifies a warranty window relative to a reference instant
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// Input carries the warranty-bearing fields of an import line item
// together with its parent batch's completion timestamp.
type Input struct {
	// PeriodDays is the warranty period sold with the item, if any
	PeriodDays *int
	// ExplicitExpiry overrides any derived expiry when present
	ExplicitExpiry *time.Time
	// CompletedAt is when the parent batch entered COMPLETED; nil for
	// batches that never completed (such items carry no warranty).
	CompletedAt *time.Time
}

// Result is the derived warranty state of an item at a reference instant
type Result struct {
	// EffectiveExpiry is nil when the item tracks no warranty
	EffectiveExpiry *time.Time `json:"effective_expiry,omitempty"`
	Status          Status     `json:"status"`
	// DaysRemaining is ceil((expiry - now) / 24h), floored at 0.
	// Zero when expired or unknown.
	DaysRemaining int `json:"days_remaining"`
}

// Evaluate computes the warranty state of an item at the instant now.
// Precedence: an explicit expiry date wins; otherwise the expiry is
// derived as completion date + period; with neither, the warranty is
// unknown.
func Evaluate(in Input, now time.Time) Result {
	expiry := effectiveExpiry(in)
	if expiry == nil {
		return Result{Status: StatusUnknown}
	}

	if !expiry.After(now) {
		return Result{EffectiveExpiry: expiry, Status: StatusExpired}
	}

	days := int(math.Ceil(expiry.Sub(now).Hours() / 24))
	return Result{
		EffectiveExpiry: expiry,
		Status:          StatusActive,
		DaysRemaining:   days,
	}
}

func effectiveExpiry(in Input) *time.Time {
	if in.ExplicitExpiry != nil {
		return in.ExplicitExpiry
	}
	if in.PeriodDays != nil && in.CompletedAt != nil {
		expiry := in.CompletedAt.AddDate(0, 0, *in.PeriodDays)
		return &expiry
	}
	return nil
}
