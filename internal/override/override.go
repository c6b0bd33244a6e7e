// Package override implements governed human overrides: time-boxed,
// single-use, revocable exceptions to default gate thresholds. Nothing in
// an override's lifecycle is ever deleted; revocation and extension append
// to the audit chain.
package override

import (
	"errors"
	"time"
)

var (
	// ErrInvalidOverride is returned when an override fails validation at
	// registration time.
	ErrInvalidOverride = errors.New("invalid override")
	// ErrInvalidScope is returned when a scope string does not match the
	// "<type>: <limit>" grammar.
	ErrInvalidScope = errors.New("invalid override scope")
)

// Scope is the typed extent of an override: which threshold it loosens and
// up to what limit. OriginalLimit carries the pre-override limit when the
// "<type>: <original> -> <limit>" form was used.
type Scope struct {
	Type          string `json:"scope_type"`
	Limit         int    `json:"limit"`
	OriginalLimit int    `json:"original_limit,omitempty"`
}

// Override is one time-boxed human exception. Expiry is required: there
// are no permanent overrides.
type Override struct {
	OverrideID       string    `json:"override_id" validate:"required"`
	ApprovedBy       string    `json:"approved_by" validate:"required"`
	ApprovedAt       time.Time `json:"approved_at" validate:"required"`
	ExpiresAt        time.Time `json:"expires_at" validate:"required"`
	Reason           string    `json:"reason" validate:"required"`
	Scope            Scope     `json:"scope"`
	Used             bool      `json:"used"`
	UsedAt           time.Time `json:"used_at,omitempty"`
	UsedForVerdict   string    `json:"used_for_verdict,omitempty"`
	Revoked          bool      `json:"revoked"`
	RevokedBy        string    `json:"revoked_by,omitempty"`
	RevocationReason string    `json:"revocation_reason,omitempty"`
	ParentOverrideID string    `json:"parent_override_id,omitempty"`
}

// Valid reports whether the override can still be applied: not expired,
// not used, not revoked.
func (o *Override) Valid(now time.Time) bool {
	if o.Revoked || o.Used {
		return false
	}
	return now.Before(o.ExpiresAt)
}
