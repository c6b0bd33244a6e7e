// Package weigh converts validated findings into weighted findings with
// deterministic points. A pure function of its inputs: same finding, same
// table, same temporal state, same output.
package weigh

import (
	"shipgate/internal/model"
	"shipgate/internal/temporal"
	"shipgate/internal/weights"
)

// DefaultSeverityWeights is the standard severity multiplier set used when
// a mode's thresholds do not override it. BLOCKER has no entry: its weight
// is a sentinel handled by a dedicated branch, never a number compared
// against others.
func DefaultSeverityWeights() map[model.Severity]float64 {
	return map[model.Severity]float64{
		model.SeverityHigh:   5.0,
		model.SeverityMedium: 2.0,
		model.SeverityLow:    1.0,
		model.SeverityInfo:   0.0,
	}
}

// Weigh resolves a finding's effective severity against its temporal
// history, then converts it to weight and points using the governed
// category table.
//
// Escalation bumps the severity exactly one step and records the original
// in EscalatedFrom. Points come from the fixed severity base-point table
// multiplied by the category weight and truncated to an integer; BLOCKER
// takes the sentinel unmodified so it exceeds any configured threshold.
func Weigh(
	f model.Finding,
	assignment *model.CategoryAssignment,
	rec *temporal.Record,
	tbl *weights.Table,
	severityWeights map[model.Severity]float64,
	escalationThreshold int,
) model.WeightedFinding {
	sev := f.Severity
	var escalatedFrom model.Severity
	if rec.ShouldEscalate(escalationThreshold) && sev != model.SeverityBlocker {
		escalatedFrom = sev
		sev = sev.Bump()
	}

	catWeight := tbl.WeightOf(f.Category)

	var weight float64
	var points int
	if sev == model.SeverityBlocker {
		// Dedicated branch: blocker weight and points are sentinels, not
		// products of configurable multipliers.
		weight = float64(model.BlockerPointsSentinel)
		points = model.BlockerPointsSentinel
	} else {
		weight = catWeight * severityWeights[sev]
		points = int(float64(sev.BasePoints()) * catWeight)
	}

	wf := model.WeightedFinding{
		FindingID:          f.ID,
		Severity:           sev,
		Category:           f.Category,
		Message:            f.Message,
		Location:           f.Location,
		RuleID:             f.RuleID,
		Weight:             weight,
		Points:             points,
		CategoryAssignment: assignment,
		EscalatedFrom:      escalatedFrom,
		SourceEngine:       f.SourceEngine,
	}
	if rec != nil {
		wf.TemporalRecord = rec.Summary()
	}
	return wf
}
