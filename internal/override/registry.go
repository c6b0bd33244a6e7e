package override

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"shipgate/internal/logging"
)

var validate = validator.New()

// Registry holds overrides in registration order. Matching scans that
// order and takes the first fit, so resolution is deterministic without
// any sorting.
type Registry struct {
	overrides []*Override
	byID      map[string]*Override
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Override)}
}

// Restore rebuilds a registry from persisted records, preserving order
// and lifecycle state. Unlike Register it accepts used, revoked, and
// expired overrides: they are audit history, not new registrations.
func Restore(overrides []*Override) *Registry {
	r := NewRegistry()
	for _, o := range overrides {
		if o == nil || o.OverrideID == "" {
			continue
		}
		if _, dup := r.byID[o.OverrideID]; dup {
			continue
		}
		r.overrides = append(r.overrides, o)
		r.byID[o.OverrideID] = o
	}
	return r
}

// Register adds an override. It fails with ErrInvalidOverride when the
// record is malformed or already invalid (expired, used, or revoked) at
// registration time.
func (r *Registry) Register(o *Override, now time.Time) error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	if o.Scope.Type == "" {
		return fmt.Errorf("%w: %s has no scope type", ErrInvalidOverride, o.OverrideID)
	}
	if !o.Valid(now) {
		return fmt.Errorf("%w: %s is expired, used, or revoked", ErrInvalidOverride, o.OverrideID)
	}
	if _, dup := r.byID[o.OverrideID]; dup {
		return fmt.Errorf("%w: duplicate override_id %s", ErrInvalidOverride, o.OverrideID)
	}
	r.overrides = append(r.overrides, o)
	r.byID[o.OverrideID] = o
	return nil
}

// Remove drops an override that has not been used yet. Used overrides are
// part of a verdict's audit trail and stay.
func (r *Registry) Remove(overrideID string) error {
	o, ok := r.byID[overrideID]
	if !ok {
		return fmt.Errorf("remove: unknown override %s", overrideID)
	}
	if o.Used {
		return fmt.Errorf("remove: override %s already used", overrideID)
	}
	delete(r.byID, overrideID)
	for i, cand := range r.overrides {
		if cand.OverrideID == overrideID {
			r.overrides = append(r.overrides[:i], r.overrides[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the override by ID, or nil.
func (r *Registry) Get(overrideID string) *Override {
	return r.byID[overrideID]
}

// All returns the overrides in registration order.
func (r *Registry) All() []*Override {
	return r.overrides
}

// FindMatching scans valid overrides in registration order and returns the
// first whose scope covers the required limit. First match wins.
func (r *Registry) FindMatching(scopeType string, requiredLimit int, now time.Time) *Override {
	for _, o := range r.overrides {
		if !o.Valid(now) {
			continue
		}
		if o.Scope.Type == scopeType && o.Scope.Limit >= requiredLimit {
			return o
		}
	}
	return nil
}

// MarkUsed consumes the override for a verdict. Single-use: a used
// override never matches again.
func (r *Registry) MarkUsed(o *Override, verdictID string, now time.Time) {
	o.Used = true
	o.UsedAt = now
	o.UsedForVerdict = verdictID
	logging.New("override").Info("override consumed",
		"override_id", o.OverrideID,
		"scope", o.Scope.String(),
		"verdict_id", verdictID,
	)
}

// Revoke invalidates the override without deleting it; the record and the
// revocation reason stay in the audit trail.
func (r *Registry) Revoke(o *Override, by, reason string, now time.Time) {
	o.Revoked = true
	o.RevokedBy = by
	o.RevocationReason = reason
	logging.New("override").Info("override revoked",
		"override_id", o.OverrideID,
		"by", by,
		"reason", reason,
	)
}

// Extend creates and registers a fresh override expiring additionalHours
// after the original expiry, chained to the original via
// parent_override_id. The original is left untouched; history is never
// rewritten.
func (r *Registry) Extend(o *Override, additionalHours int, by, reason string, now time.Time) (*Override, error) {
	if additionalHours <= 0 {
		return nil, fmt.Errorf("%w: extension hours must be positive", ErrInvalidOverride)
	}
	child := &Override{
		OverrideID:       uuid.NewString(),
		ApprovedBy:       by,
		ApprovedAt:       now,
		ExpiresAt:        o.ExpiresAt.Add(time.Duration(additionalHours) * time.Hour),
		Reason:           reason,
		Scope:            o.Scope,
		ParentOverrideID: o.OverrideID,
	}
	if err := r.Register(child, now); err != nil {
		return nil, err
	}
	return child, nil
}

// Chain walks parent_override_id links from the given override back to the
// root, returning the full lineage oldest-first.
func (r *Registry) Chain(overrideID string) []*Override {
	var chain []*Override
	for o := r.byID[overrideID]; o != nil; o = r.byID[o.ParentOverrideID] {
		chain = append([]*Override{o}, chain...)
		if o.ParentOverrideID == "" {
			break
		}
	}
	return chain
}
