package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"shipgate/internal/override"
	"shipgate/internal/temporal"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gate.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqlStore_TemporalRoundTrip(t *testing.T) {
	s := openTestStore(t)

	records := map[string]*temporal.Record{
		"fp1": {
			Fingerprint:     "fp1",
			RuleID:          "SEC-101",
			Location:        "auth/token.go:42",
			FirstSeen:       now,
			LastSeen:        now,
			Occurrences:     3,
			RunsWithFinding: []string{"r1", "r2", "r3"},
			Escalated:       true,
		},
		"fp2": {Fingerprint: "fp2", RuleID: "LNT-7", Occurrences: 1, DeEscalated: true, DeEscalatedBy: "alice"},
	}
	if err := s.SaveTemporal(records); err != nil {
		t.Fatalf("SaveTemporal: %v", err)
	}

	loaded, err := s.LoadTemporal()
	if err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}
	if diff := cmp.Diff(records, loaded); diff != "" {
		t.Errorf("temporal round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSqlStore_TemporalUpsert(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveTemporal(map[string]*temporal.Record{
		"fp1": {Fingerprint: "fp1", Occurrences: 1},
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveTemporal(map[string]*temporal.Record{
		"fp1": {Fingerprint: "fp1", Occurrences: 2},
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.LoadTemporal()
	if err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}
	if loaded["fp1"].Occurrences != 2 {
		t.Errorf("Occurrences = %d, want 2 after upsert", loaded["fp1"].Occurrences)
	}
}

func TestSqlStore_OverridesPreserveOrder(t *testing.T) {
	s := openTestStore(t)

	overrides := []*override.Override{
		{OverrideID: "zeta", ApprovedBy: "a", ApprovedAt: now, ExpiresAt: now.Add(time.Hour), Reason: "r", Scope: override.Scope{Type: "max_highs", Limit: 8}},
		{OverrideID: "alpha", ApprovedBy: "b", ApprovedAt: now, ExpiresAt: now.Add(time.Hour), Reason: "r", Scope: override.Scope{Type: "max_highs", Limit: 20}},
	}
	if err := s.SaveOverrides(overrides); err != nil {
		t.Fatalf("SaveOverrides: %v", err)
	}

	loaded, err := s.LoadOverrides()
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len = %d, want 2", len(loaded))
	}
	// Registration order, not lexical order.
	if loaded[0].OverrideID != "zeta" || loaded[1].OverrideID != "alpha" {
		t.Errorf("order = [%s, %s], want [zeta, alpha]", loaded[0].OverrideID, loaded[1].OverrideID)
	}
}

func TestSqlStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gate.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveTemporal(map[string]*temporal.Record{"fp1": {Fingerprint: "fp1", Occurrences: 7}}); err != nil {
		t.Fatalf("SaveTemporal: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	loaded, err := s2.LoadTemporal()
	if err != nil {
		t.Fatalf("LoadTemporal after reopen: %v", err)
	}
	if loaded["fp1"] == nil || loaded["fp1"].Occurrences != 7 {
		t.Errorf("loaded = %+v, want fp1 with 7 occurrences", loaded["fp1"])
	}
}

func TestMemStore_ClonesOnTheWayOut(t *testing.T) {
	m := NewMemStore()
	if err := m.SaveTemporal(map[string]*temporal.Record{"fp1": {Fingerprint: "fp1", Occurrences: 1}}); err != nil {
		t.Fatalf("SaveTemporal: %v", err)
	}

	first, err := m.LoadTemporal()
	if err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}
	first["fp1"].Occurrences = 99

	second, err := m.LoadTemporal()
	if err != nil {
		t.Fatalf("LoadTemporal: %v", err)
	}
	if second["fp1"].Occurrences != 1 {
		t.Error("mutating a loaded record must not leak into the store")
	}
}
