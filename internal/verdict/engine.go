package verdict

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"shipgate/internal/canonical"
	"shipgate/internal/health"
	"shipgate/internal/logging"
	"shipgate/internal/model"
	"shipgate/internal/override"
	"shipgate/internal/temporal"
	"shipgate/internal/weigh"
	"shipgate/internal/weights"
)

// topFindingsLimit caps the findings embedded in a result for readability.
// The full counts stay in the summary and breakdowns.
const topFindingsLimit = 10

// Engine runs the verdict determination cascade. It holds no state of its
// own beyond injected collaborators; every Determine call is a pure
// computation over the snapshot it is given.
type Engine struct {
	weights    *weights.Table
	health     *health.Registry
	overrides  *override.Registry
	tracker    *temporal.Tracker
	thresholds Thresholds
	log        *slog.Logger
}

// NewEngine wires a determination engine for one aggregation run.
func NewEngine(
	tbl *weights.Table,
	healthReg *health.Registry,
	overrides *override.Registry,
	tracker *temporal.Tracker,
	thresholds Thresholds,
) *Engine {
	return &Engine{
		weights:    tbl,
		health:     healthReg,
		overrides:  overrides,
		tracker:    tracker,
		thresholds: thresholds,
		log:        logging.New("verdict"),
	}
}

// Determine produces the verdict for one run. It fails fast with
// ErrInvalidThresholds before weighing anything; every other condition is
// a business outcome recorded as a reason, never an error.
func (e *Engine) Determine(
	findings []model.Finding,
	audit map[string]*model.CategoryAssignmentHistory,
	runID string,
	now time.Time,
) (*Result, error) {
	th := e.thresholds
	if err := th.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:               runID,
		Mode:                th.Mode,
		GeneratedAt:         now.UTC(),
		ShipReasons:         []string{},
		NoShipReasons:       []string{},
		DegradationReasons:  []string{},
		OverridesApplied:    []AppliedOverride{},
		TemporalEscalations: []Escalation{},
	}

	sevWeights := th.SeverityWeights
	if len(sevWeights) == 0 {
		sevWeights = weigh.DefaultSeverityWeights()
	}
	escThreshold := 0
	if th.EscalationSeverityBump {
		escThreshold = th.EscalationThresholdOccurrences
	}

	weighted := e.weighAll(findings, audit, runID, now, sevWeights, escThreshold, res)
	e.accumulate(weighted, res)

	// Decision cascade. Each check records every reason it finds; the
	// final status folds them in a fixed order.
	e.checkEngineHealth(res)
	e.checkPerEngineBudgets(res)
	e.checkBlockers(res)
	e.checkHighs(res, now)
	e.checkTotalPoints(res)
	e.checkCategoryLimits(res)
	e.addInformationalReasons(res)

	switch {
	case len(res.NoShipReasons) > 0:
		res.Status = StatusNoShip
	case len(res.DegradationReasons) > 0:
		res.Status = StatusDegraded
	default:
		res.Status = StatusShip
	}

	res.TopFindings = topFindings(weighted)
	res.CategoryAudit = auditTrail(audit)

	// Snapshot the weights actually used, regardless of outcome, so the
	// verdict stays explainable after the live table is revised.
	res.CategoryWeightsUsed = e.weights.Snapshot()
	res.WeightVersion = e.weights.WeightVersion

	id, err := canonical.Hash(res)
	if err != nil {
		return nil, fmt.Errorf("hash verdict: %w", err)
	}
	res.VerdictID = id

	for _, applied := range res.OverridesApplied {
		if o := e.overrides.Get(applied.OverrideID); o != nil {
			e.overrides.MarkUsed(o, res.VerdictID, now)
		}
	}

	e.log.Info("verdict determined",
		"verdict_id", res.VerdictID,
		"run_id", runID,
		"mode", string(th.Mode),
		"status", string(res.Status),
		"findings", res.Summary.TotalFindings,
		"points", res.Summary.TotalPoints,
	)
	return res, nil
}

// weighAll records occurrences, resolves escalations, and converts every
// finding to points. Input order is preserved.
func (e *Engine) weighAll(
	findings []model.Finding,
	audit map[string]*model.CategoryAssignmentHistory,
	runID string,
	now time.Time,
	sevWeights map[model.Severity]float64,
	escThreshold int,
	res *Result,
) []model.WeightedFinding {
	weighted := make([]model.WeightedFinding, 0, len(findings))
	for _, f := range findings {
		rec := e.tracker.RecordOccurrence(f, runID, now)

		var assignment *model.CategoryAssignment
		if h := audit[f.ID]; h != nil {
			assignment = h.Current()
		}

		wf := weigh.Weigh(f, assignment, rec, e.weights, sevWeights, escThreshold)
		if wf.EscalatedFrom != "" {
			reason := fmt.Sprintf("recurred %d times across %d runs", rec.Occurrences, len(rec.RunsWithFinding))
			e.tracker.Escalate(rec.Fingerprint, reason)
			res.TemporalEscalations = append(res.TemporalEscalations, Escalation{
				Fingerprint: rec.Fingerprint,
				FindingID:   f.ID,
				From:        wf.EscalatedFrom,
				To:          wf.Severity,
				Occurrences: rec.Occurrences,
				Reason:      reason,
			})
		}
		weighted = append(weighted, wf)
	}
	return weighted
}

// accumulate fills the summary and the per-engine and per-category
// breakdowns, in deterministic order.
func (e *Engine) accumulate(weighted []model.WeightedFinding, res *Result) {
	engines := make(map[string]*EngineBreakdown)
	categories := make(map[model.Category]*CategoryBreakdown)

	// Expected engines appear in the breakdown even with zero findings.
	for _, h := range e.health.All() {
		engines[h.EngineID] = &EngineBreakdown{
			EngineID:     h.EngineID,
			HealthSignal: true,
			Healthy:      h.Healthy(),
		}
	}

	for _, wf := range weighted {
		engineID := wf.SourceEngine
		if engineID == "" {
			engineID = "unknown"
		}
		eb, ok := engines[engineID]
		if !ok {
			eb = &EngineBreakdown{EngineID: engineID}
			engines[engineID] = eb
		}
		eb.Findings++
		eb.Points += wf.Points
		switch wf.Severity {
		case model.SeverityBlocker:
			eb.Blockers++
			res.Summary.Blockers++
		case model.SeverityHigh:
			eb.Highs++
			res.Summary.Highs++
		case model.SeverityMedium:
			res.Summary.Mediums++
		case model.SeverityLow:
			res.Summary.Lows++
		case model.SeverityInfo:
			res.Summary.Infos++
		}

		cb, ok := categories[wf.Category]
		if !ok {
			cb = &CategoryBreakdown{Category: wf.Category}
			categories[wf.Category] = cb
		}
		cb.Findings++
		cb.Points += wf.Points

		res.Summary.TotalFindings++
		res.Summary.TotalPoints += wf.Points
	}

	engineIDs := make([]string, 0, len(engines))
	for id := range engines {
		engineIDs = append(engineIDs, id)
	}
	sort.Strings(engineIDs)
	for _, id := range engineIDs {
		res.Engines = append(res.Engines, *engines[id])
	}

	catKeys := make([]string, 0, len(categories))
	for cat := range categories {
		catKeys = append(catKeys, string(cat))
	}
	sort.Strings(catKeys)
	for _, key := range catKeys {
		cb := categories[model.Category(key)]
		if limit, ok := e.thresholds.CategoryLimits[cb.Category]; ok {
			cb.Limit = limit
			cb.LimitExceeded = cb.Points > limit
		}
		res.Categories = append(res.Categories, *cb)
	}
}

// checkEngineHealth applies cascade step 1: minimum engine count and
// silent or failed engines.
func (e *Engine) checkEngineHealth(res *Result) {
	th := e.thresholds

	healthy := e.health.CountHealthy()
	if healthy < th.MinEnginesRequired {
		res.NoShipReasons = append(res.NoShipReasons,
			fmt.Sprintf("only %d healthy engines, %d required", healthy, th.MinEnginesRequired))
	}

	for _, h := range e.health.All() {
		if !h.Expected {
			continue
		}
		if h.Healthy() {
			continue
		}
		var reason string
		switch {
		case !h.Ran:
			reason = fmt.Sprintf("expected engine %s never ran", h.EngineID)
		case h.ErrorMessage != "":
			reason = fmt.Sprintf("engine %s failed: %s", h.EngineID, h.ErrorMessage)
		default:
			reason = fmt.Sprintf("engine %s did not succeed", h.EngineID)
		}
		res.DegradationReasons = append(res.DegradationReasons, reason)
		if th.RequireAllEnginesHealthy {
			res.NoShipReasons = append(res.NoShipReasons, reason)
		}
	}

	// An engine that reported findings without any health signal is never
	// assumed healthy.
	for i := range res.Engines {
		eb := &res.Engines[i]
		if eb.HealthSignal || eb.Findings == 0 {
			continue
		}
		reason := fmt.Sprintf("engine %s reported findings without a health signal", eb.EngineID)
		res.DegradationReasons = append(res.DegradationReasons, reason)
		if th.RequireAllEnginesHealthy {
			res.NoShipReasons = append(res.NoShipReasons, reason)
		}
	}
}

// checkPerEngineBudgets applies cascade step 2: an engine passes iff it
// contributed zero blockers, highs within tolerance, and less than an
// equal share of the point budget.
func (e *Engine) checkPerEngineBudgets(res *Result) {
	th := e.thresholds
	if len(res.Engines) == 0 {
		return
	}
	budget := th.MaxTotalPoints / len(res.Engines)
	for i := range res.Engines {
		eb := &res.Engines[i]
		eb.Passed = eb.Blockers == 0 && eb.Highs <= th.MaxHighs && eb.Points < budget
		if !eb.Passed && th.RequireAllEnginesHealthy {
			res.NoShipReasons = append(res.NoShipReasons,
				fmt.Sprintf("engine %s failed its share of the gate (blockers=%d highs=%d points=%d, budget %d)",
					eb.EngineID, eb.Blockers, eb.Highs, eb.Points, budget))
		}
	}
}

// checkBlockers applies cascade step 3. Blockers are never overridable.
func (e *Engine) checkBlockers(res *Result) {
	if res.Summary.Blockers > e.thresholds.MaxBlockers {
		res.NoShipReasons = append(res.NoShipReasons,
			fmt.Sprintf("%d blockers exceed max %d (not overridable)",
				res.Summary.Blockers, e.thresholds.MaxBlockers))
	}
}

// checkHighs applies cascade step 4: a breach first tries a governed
// override; only when none matches does it become a no-ship reason.
func (e *Engine) checkHighs(res *Result, now time.Time) {
	th := e.thresholds
	if res.Summary.Highs <= th.MaxHighs {
		return
	}
	if o := e.overrides.FindMatching("max_highs", res.Summary.Highs, now); o != nil {
		res.OverridesApplied = append(res.OverridesApplied, AppliedOverride{
			OverrideID: o.OverrideID,
			ApprovedBy: o.ApprovedBy,
			Scope:      o.Scope.String(),
			Reason:     o.Reason,
		})
		res.ShipReasons = append(res.ShipReasons,
			fmt.Sprintf("%d highs allowed by override %s (%s)", res.Summary.Highs, o.OverrideID, o.Scope.String()))
		return
	}
	res.NoShipReasons = append(res.NoShipReasons,
		fmt.Sprintf("%d highs exceed max %d and no override matches", res.Summary.Highs, th.MaxHighs))
}

// checkTotalPoints applies cascade step 5.
func (e *Engine) checkTotalPoints(res *Result) {
	if res.Summary.TotalPoints > e.thresholds.MaxTotalPoints {
		res.NoShipReasons = append(res.NoShipReasons,
			fmt.Sprintf("total points %d exceed threshold %d",
				res.Summary.TotalPoints, e.thresholds.MaxTotalPoints))
	}
}

// checkCategoryLimits applies cascade step 6.
func (e *Engine) checkCategoryLimits(res *Result) {
	for _, cb := range res.Categories {
		if cb.LimitExceeded {
			res.NoShipReasons = append(res.NoShipReasons,
				fmt.Sprintf("category %s points %d exceed limit %d", cb.Category, cb.Points, cb.Limit))
		}
	}
}

// addInformationalReasons applies cascade step 7: explanatory ship reasons
// recorded whenever their conditions hold, independent of the outcome.
func (e *Engine) addInformationalReasons(res *Result) {
	th := e.thresholds
	if res.Summary.Blockers == 0 {
		res.ShipReasons = append(res.ShipReasons, "no blockers")
	}
	if res.Summary.Highs <= th.MaxHighs {
		res.ShipReasons = append(res.ShipReasons,
			fmt.Sprintf("highs %d within tolerance %d", res.Summary.Highs, th.MaxHighs))
	}
	if res.Summary.TotalPoints <= th.MaxTotalPoints {
		res.ShipReasons = append(res.ShipReasons,
			fmt.Sprintf("total points %d within threshold %d", res.Summary.TotalPoints, th.MaxTotalPoints))
	}
	if e.health.CountHealthy() >= th.MinEnginesRequired {
		res.ShipReasons = append(res.ShipReasons,
			fmt.Sprintf("minimum engine count met (%d healthy, %d required)",
				e.health.CountHealthy(), th.MinEnginesRequired))
	}
}

// topFindings sorts a copy of the weighted findings by severity, then
// points descending, then finding_id, and caps the list.
func topFindings(weighted []model.WeightedFinding) []model.WeightedFinding {
	top := make([]model.WeightedFinding, len(weighted))
	copy(top, weighted)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Severity.Rank() != top[j].Severity.Rank() {
			return top[i].Severity.Rank() > top[j].Severity.Rank()
		}
		if top[i].Points != top[j].Points {
			return top[i].Points > top[j].Points
		}
		return top[i].FindingID < top[j].FindingID
	})
	if len(top) > topFindingsLimit {
		top = top[:topFindingsLimit]
	}
	return top
}

// auditTrail flattens the assignment histories into a deterministic list.
func auditTrail(audit map[string]*model.CategoryAssignmentHistory) []model.CategoryAssignmentHistory {
	ids := make([]string, 0, len(audit))
	for id, h := range audit {
		if h == nil || len(h.Assignments) == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.CategoryAssignmentHistory, 0, len(ids))
	for _, id := range ids {
		out = append(out, *audit[id])
	}
	return out
}
