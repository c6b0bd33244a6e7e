package temporal

import (
	"errors"
	"testing"
	"time"

	"shipgate/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func finding(rule, loc string, sev model.Severity) model.Finding {
	return model.Finding{ID: "f-" + rule, RuleID: rule, Location: loc, Severity: sev}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("SEC-101", "auth/token.go:42")
	b := Fingerprint("SEC-101", "auth/token.go:42")
	if a != b {
		t.Errorf("fingerprint not stable: %s vs %s", a, b)
	}
	if a == Fingerprint("SEC-101", "auth/token.go:43") {
		t.Error("different locations should fingerprint differently")
	}
	if a == Fingerprint("SEC-102", "auth/token.go:42") {
		t.Error("different rules should fingerprint differently")
	}
}

func TestRecordOccurrence_AppendsHistory(t *testing.T) {
	tr := NewTracker(nil)
	f := finding("SEC-101", "auth/token.go:42", model.SeverityLow)

	r := tr.RecordOccurrence(f, "run-1", t0)
	if r.Occurrences != 1 || len(r.RunsWithFinding) != 1 {
		t.Fatalf("after first occurrence: %+v", r)
	}
	if !r.FirstSeen.Equal(t0) {
		t.Errorf("FirstSeen = %v, want %v", r.FirstSeen, t0)
	}

	later := t0.Add(24 * time.Hour)
	r = tr.RecordOccurrence(f, "run-2", later)
	if r.Occurrences != 2 {
		t.Errorf("Occurrences = %d, want 2", r.Occurrences)
	}
	if !r.FirstSeen.Equal(t0) {
		t.Error("FirstSeen must never move")
	}
	if !r.LastSeen.Equal(later) {
		t.Errorf("LastSeen = %v, want %v", r.LastSeen, later)
	}
	if len(r.SeverityHistory) != 2 {
		t.Errorf("SeverityHistory length = %d, want 2", len(r.SeverityHistory))
	}
	if len(r.RunsWithFinding) != 2 {
		t.Errorf("RunsWithFinding = %v, want two runs", r.RunsWithFinding)
	}
}

func TestShouldEscalate_Threshold(t *testing.T) {
	tr := NewTracker(nil)
	f := finding("LNT-7", "pkg/api/handler.go:10", model.SeverityLow)
	fp := Fingerprint(f.RuleID, f.Location)

	for i := 0; i < 2; i++ {
		tr.RecordOccurrence(f, "run", t0)
	}
	if tr.ShouldEscalate(fp, 3) {
		t.Error("2 occurrences should not reach threshold 3")
	}
	tr.RecordOccurrence(f, "run", t0)
	if !tr.ShouldEscalate(fp, 3) {
		t.Error("3 occurrences should reach threshold 3")
	}
}

func TestDeEscalate_PermanentlySuppresses(t *testing.T) {
	tr := NewTracker(nil)
	f := finding("UI-3", "web/form.tsx:5", model.SeverityMedium)
	fp := Fingerprint(f.RuleID, f.Location)

	for i := 0; i < 5; i++ {
		tr.RecordOccurrence(f, "run", t0)
	}
	tr.Escalate(fp, "chronic issue")
	if !tr.Get(fp).Escalated {
		t.Fatal("record should be escalated")
	}

	if err := tr.DeEscalate(fp, "alice", "known flaky selector", t0); err != nil {
		t.Fatalf("DeEscalate: %v", err)
	}
	r := tr.Get(fp)
	if r.Escalated || !r.DeEscalated {
		t.Errorf("after de-escalation: escalated=%v de_escalated=%v", r.Escalated, r.DeEscalated)
	}
	if r.DeEscalatedBy != "alice" {
		t.Errorf("DeEscalatedBy = %q, want alice", r.DeEscalatedBy)
	}

	// Further occurrences never re-escalate.
	for i := 0; i < 10; i++ {
		tr.RecordOccurrence(f, "run", t0)
	}
	if tr.ShouldEscalate(fp, 3) {
		t.Error("de-escalated fingerprint must never escalate again")
	}
}

func TestDeEscalate_UnknownFingerprint(t *testing.T) {
	tr := NewTracker(nil)
	if err := tr.DeEscalate("deadbeef", "alice", "nope", t0); err == nil {
		t.Error("expected error for unknown fingerprint")
	}
}

type failingStore struct{}

func (failingStore) LoadTemporal() (map[string]*Record, error) {
	return nil, errors.New("disk on fire")
}
func (failingStore) SaveTemporal(map[string]*Record) error { return nil }

func TestNewTracker_StoreFailureStartsEmpty(t *testing.T) {
	tr := NewTracker(failingStore{})
	if len(tr.All()) != 0 {
		t.Error("unreadable store should yield an empty tracker, not a failure")
	}
}

type memStore struct {
	data map[string]*Record
}

func (m *memStore) LoadTemporal() (map[string]*Record, error) { return m.data, nil }
func (m *memStore) SaveTemporal(recs map[string]*Record) error {
	m.data = recs
	return nil
}

func TestTracker_SaveAndReload(t *testing.T) {
	st := &memStore{}
	tr := NewTracker(st)
	f := finding("SEC-9", "db/conn.go:1", model.SeverityHigh)
	tr.RecordOccurrence(f, "run-1", t0)
	if err := tr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tr2 := NewTracker(st)
	fp := Fingerprint(f.RuleID, f.Location)
	if tr2.Get(fp) == nil {
		t.Fatal("record should survive a save/reload cycle")
	}
	if tr2.Get(fp).Occurrences != 1 {
		t.Errorf("Occurrences = %d, want 1", tr2.Get(fp).Occurrences)
	}
}
