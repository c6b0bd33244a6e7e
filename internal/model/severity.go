// Package model defines the finding domain: severities, categories, raw and
// weighted findings, and the category-assignment audit trail. Severity and
// category are closed enums; unknown strings are rejected at the ingestion
// boundary, never defaulted.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEnumValue is returned when an ingested severity or category
// string does not match any known value.
var ErrUnknownEnumValue = errors.New("unknown enum value")

// Severity is the totally ordered finding severity. BLOCKER is highest.
type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityHigh    Severity = "HIGH"
	SeverityMedium  Severity = "MEDIUM"
	SeverityLow     Severity = "LOW"
	SeverityInfo    Severity = "INFO"
)

// BlockerPointsSentinel is the fixed point value assigned to BLOCKER
// findings. It is guaranteed to exceed any configured point threshold.
const BlockerPointsSentinel = 1_000_000

var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityLow:     1,
	SeverityMedium:  2,
	SeverityHigh:    3,
	SeverityBlocker: 4,
}

// severityByRank is the inverse of severityRank for one-step bumps.
var severityByRank = [...]Severity{
	SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityBlocker,
}

// ParseSeverity maps an ingested string to a Severity. Matching is
// case-insensitive; unknown values fail with ErrUnknownEnumValue.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("%w: severity %q", ErrUnknownEnumValue, s)
	}
	return sev, nil
}

// Rank returns the position of s in the total order (INFO=0 .. BLOCKER=4).
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is at or above other in the total order.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Bump returns the severity exactly one step above s. BLOCKER stays BLOCKER;
// escalation never skips levels.
func (s Severity) Bump() Severity {
	r := severityRank[s]
	if r >= severityRank[SeverityBlocker] {
		return SeverityBlocker
	}
	return severityByRank[r+1]
}

// BasePoints returns the fixed severity base points used by the weigher.
// BLOCKER maps to the sentinel and is handled as a dedicated branch by
// callers that multiply by category weight.
func (s Severity) BasePoints() int {
	switch s {
	case SeverityBlocker:
		return BlockerPointsSentinel
	case SeverityHigh:
		return 50
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
