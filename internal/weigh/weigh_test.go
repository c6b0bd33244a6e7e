package weigh

import (
	"testing"
	"time"

	"shipgate/internal/model"
	"shipgate/internal/temporal"
	"shipgate/internal/weights"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func table(t *testing.T) *weights.Table {
	t.Helper()
	tbl, err := weights.Default()
	if err != nil {
		t.Fatalf("weights.Default: %v", err)
	}
	return tbl
}

func TestWeigh_PointsTable(t *testing.T) {
	tbl := table(t) // security = 2.0
	cases := []struct {
		sev        model.Severity
		cat        model.Category
		wantPoints int
	}{
		{model.SeverityHigh, model.CategorySecurity, 100},  // 50 * 2.0
		{model.SeverityMedium, model.CategorySecurity, 20}, // 10 * 2.0
		{model.SeverityLow, model.CategorySecurity, 2},     // 1 * 2.0
		{model.SeverityInfo, model.CategorySecurity, 0},
		{model.SeverityHigh, model.CategoryGeneral, 50}, // 50 * 1.0
	}
	for _, c := range cases {
		f := model.Finding{ID: "f1", Severity: c.sev, Category: c.cat}
		wf := Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0)
		if wf.Points != c.wantPoints {
			t.Errorf("Weigh(%s/%s).Points = %d, want %d", c.sev, c.cat, wf.Points, c.wantPoints)
		}
	}
}

func TestWeigh_TruncatesPoints(t *testing.T) {
	tbl := &weights.Table{Weights: map[model.Category]float64{model.CategoryUI: 0.8}}
	f := model.Finding{ID: "f1", Severity: model.SeverityMedium, Category: model.CategoryUI}
	wf := Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0)
	if wf.Points != 8 { // trunc(10 * 0.8)
		t.Errorf("Points = %d, want 8", wf.Points)
	}

	tbl.Weights[model.CategoryUI] = 0.79
	wf = Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0)
	if wf.Points != 7 { // trunc(7.9), not rounded to 8
		t.Errorf("Points = %d, want 7 (truncation)", wf.Points)
	}
}

func TestWeigh_BlockerSentinel(t *testing.T) {
	tbl := table(t)
	f := model.Finding{ID: "f1", Severity: model.SeverityBlocker, Category: model.CategoryKnowledge}
	wf := Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0)
	if wf.Points != model.BlockerPointsSentinel {
		t.Errorf("blocker Points = %d, want sentinel %d", wf.Points, model.BlockerPointsSentinel)
	}
	// Category weight 0.6 must not dilute the sentinel.
	if wf.Points < 100_000 {
		t.Error("blocker points must exceed any configurable threshold")
	}
}

func TestWeigh_EscalatesOneStep(t *testing.T) {
	tbl := table(t)
	f := model.Finding{ID: "f1", Severity: model.SeverityLow, Category: model.CategoryGeneral, RuleID: "LNT-7", Location: "a.go:1"}

	rec := &temporal.Record{Fingerprint: "abc", Occurrences: 5}
	wf := Weigh(f, nil, rec, tbl, DefaultSeverityWeights(), 3)
	if wf.Severity != model.SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM after one-step escalation", wf.Severity)
	}
	if wf.EscalatedFrom != model.SeverityLow {
		t.Errorf("EscalatedFrom = %s, want LOW", wf.EscalatedFrom)
	}
	if wf.Points != 10 { // MEDIUM base 10 * general 1.0
		t.Errorf("Points = %d, want 10 (escalated severity drives points)", wf.Points)
	}
}

func TestWeigh_DeEscalatedNeverEscalates(t *testing.T) {
	tbl := table(t)
	f := model.Finding{ID: "f1", Severity: model.SeverityLow, Category: model.CategoryGeneral}
	rec := &temporal.Record{Fingerprint: "abc", Occurrences: 50, DeEscalated: true}

	wf := Weigh(f, nil, rec, tbl, DefaultSeverityWeights(), 3)
	if wf.Severity != model.SeverityLow || wf.EscalatedFrom != "" {
		t.Errorf("de-escalated record must not bump: got %s from %q", wf.Severity, wf.EscalatedFrom)
	}
}

func TestWeigh_CarriesTemporalSummary(t *testing.T) {
	tbl := table(t)
	f := model.Finding{ID: "f1", Severity: model.SeverityHigh, Category: model.CategorySecurity}
	rec := &temporal.Record{Fingerprint: "abc", Occurrences: 2, FirstSeen: now, LastSeen: now, RunsWithFinding: []string{"r1", "r2"}}

	wf := Weigh(f, nil, rec, tbl, DefaultSeverityWeights(), 0)
	if wf.TemporalRecord == nil {
		t.Fatal("TemporalRecord should be populated when history exists")
	}
	if wf.TemporalRecord.Occurrences != 2 || wf.TemporalRecord.RunsWithFinding != 2 {
		t.Errorf("TemporalRecord = %+v", wf.TemporalRecord)
	}
}

func TestWeigh_Deterministic(t *testing.T) {
	tbl := table(t)
	f := model.Finding{ID: "f1", Severity: model.SeverityHigh, Category: model.CategorySecurity}
	first := Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0)
	for i := 0; i < 10; i++ {
		if got := Weigh(f, nil, nil, tbl, DefaultSeverityWeights(), 0); got != first {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}
