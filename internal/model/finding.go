package model

import (
	"fmt"
	"time"
)

// RawFinding is one issue as reported by an analysis engine, before the
// ingestion boundary has validated its enums.
type RawFinding struct {
	ID           string `json:"id"`
	Severity     string `json:"severity"`
	Category     string `json:"category"`
	Message      string `json:"message"`
	Location     string `json:"location,omitempty"`
	RuleID       string `json:"rule_id,omitempty"`
	SourceEngine string `json:"source_engine,omitempty"`
}

// Finding is a raw finding after enum validation.
type Finding struct {
	ID           string
	Severity     Severity
	Category     Category
	Message      string
	Location     string
	RuleID       string
	SourceEngine string
}

// ParseFinding validates a raw finding's severity and category strings.
// Unknown values fail with ErrUnknownEnumValue; nothing is coerced.
func ParseFinding(raw RawFinding) (Finding, error) {
	sev, err := ParseSeverity(raw.Severity)
	if err != nil {
		return Finding{}, fmt.Errorf("finding %s: %w", raw.ID, err)
	}
	cat, err := ParseCategory(raw.Category)
	if err != nil {
		return Finding{}, fmt.Errorf("finding %s: %w", raw.ID, err)
	}
	return Finding{
		ID:           raw.ID,
		Severity:     sev,
		Category:     cat,
		Message:      raw.Message,
		Location:     raw.Location,
		RuleID:       raw.RuleID,
		SourceEngine: raw.SourceEngine,
	}, nil
}

// TemporalSummary is the slice of a finding's occurrence history that is
// frozen into a WeightedFinding for explainability.
type TemporalSummary struct {
	Fingerprint     string    `json:"fingerprint"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	Occurrences     int       `json:"occurrences"`
	RunsWithFinding int       `json:"runs_with_finding"`
	Escalated       bool      `json:"escalated"`
	DeEscalated     bool      `json:"de_escalated"`
}

// WeightedFinding is a finding after severity resolution and point
// conversion. Created once per aggregation run and never mutated after
// being placed into a verdict.
type WeightedFinding struct {
	FindingID          string              `json:"finding_id"`
	Severity           Severity            `json:"severity"`
	Category           Category            `json:"category"`
	Message            string              `json:"message"`
	Location           string              `json:"location,omitempty"`
	RuleID             string              `json:"rule_id,omitempty"`
	Weight             float64             `json:"weight"`
	Points             int                 `json:"points"`
	CategoryAssignment *CategoryAssignment `json:"category_assignment,omitempty"`
	TemporalRecord     *TemporalSummary    `json:"temporal_record,omitempty"`
	EscalatedFrom      Severity            `json:"escalated_from,omitempty"`
	SourceEngine       string              `json:"source_engine,omitempty"`
}
