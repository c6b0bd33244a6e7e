package verdict

import (
	"time"

	"shipgate/internal/model"
)

// Status is the final gate decision.
type Status string

const (
	StatusShip     Status = "SHIP"
	StatusNoShip   Status = "NO_SHIP"
	StatusDegraded Status = "DEGRADED"
)

// Summary holds the aggregate finding counts for one run.
type Summary struct {
	TotalFindings int `json:"total_findings"`
	Blockers      int `json:"blockers"`
	Highs         int `json:"highs"`
	Mediums       int `json:"mediums"`
	Lows          int `json:"lows"`
	Infos         int `json:"infos"`
	TotalPoints   int `json:"total_points"`
}

// EngineBreakdown is one engine's contribution and pass/fail state.
type EngineBreakdown struct {
	EngineID     string `json:"engine_id"`
	Findings     int    `json:"findings"`
	Blockers     int    `json:"blockers"`
	Highs        int    `json:"highs"`
	Points       int    `json:"points"`
	HealthSignal bool   `json:"health_signal"`
	Healthy      bool   `json:"healthy"`
	Passed       bool   `json:"passed"`
}

// CategoryBreakdown is one category's contribution against its limit.
type CategoryBreakdown struct {
	Category      model.Category `json:"category"`
	Findings      int            `json:"findings"`
	Points        int            `json:"points"`
	Limit         int            `json:"limit,omitempty"`
	LimitExceeded bool           `json:"limit_exceeded"`
}

// AppliedOverride records an override consumed by this verdict.
type AppliedOverride struct {
	OverrideID string `json:"override_id"`
	ApprovedBy string `json:"approved_by"`
	Scope      string `json:"scope"`
	Reason     string `json:"reason"`
}

// Escalation records one temporal severity bump applied in this run.
type Escalation struct {
	Fingerprint string         `json:"fingerprint"`
	FindingID   string         `json:"finding_id"`
	From        model.Severity `json:"from"`
	To          model.Severity `json:"to"`
	Occurrences int            `json:"occurrences"`
	Reason      string         `json:"reason"`
}

// Result is the single output of one aggregation run. Immutable once
// produced; safe for concurrent readers. The weight snapshot keeps the
// verdict explainable after the live weight table moves on.
type Result struct {
	VerdictID   string    `json:"verdict_id"`
	RunID       string    `json:"run_id"`
	Mode        Mode      `json:"mode"`
	GeneratedAt time.Time `json:"generated_at"`
	Status      Status    `json:"status"`

	Summary    Summary             `json:"summary"`
	Engines    []EngineBreakdown   `json:"engines"`
	Categories []CategoryBreakdown `json:"categories"`

	// TopFindings is sorted by severity, then points descending, with a
	// stable tie-break on finding_id.
	TopFindings []model.WeightedFinding `json:"top_findings"`

	ShipReasons        []string `json:"ship_reasons"`
	NoShipReasons      []string `json:"no_ship_reasons"`
	DegradationReasons []string `json:"degradation_reasons"`

	OverridesApplied    []AppliedOverride `json:"overrides_applied"`
	TemporalEscalations []Escalation      `json:"temporal_escalations"`

	CategoryAudit []model.CategoryAssignmentHistory `json:"category_audit,omitempty"`

	CategoryWeightsUsed map[string]float64 `json:"category_weights_used"`
	WeightVersion       string             `json:"weight_version"`
}
