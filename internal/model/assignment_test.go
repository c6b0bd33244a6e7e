package model

import (
	"errors"
	"testing"
	"time"
)

func ts(minute int) time.Time {
	return time.Date(2026, 3, 1, 10, minute, 0, 0, time.UTC)
}

func TestParseFinding_RejectsUnknownCategory(t *testing.T) {
	_, err := ParseFinding(RawFinding{ID: "f1", Severity: "HIGH", Category: "cosmology"})
	if !errors.Is(err, ErrUnknownEnumValue) {
		t.Errorf("err = %v, want ErrUnknownEnumValue", err)
	}
}

func TestParseFinding_Valid(t *testing.T) {
	f, err := ParseFinding(RawFinding{
		ID: "f1", Severity: "high", Category: "Security",
		Message: "hardcoded key", RuleID: "SEC-101", Location: "auth/token.go:42",
	})
	if err != nil {
		t.Fatalf("ParseFinding: %v", err)
	}
	if f.Severity != SeverityHigh || f.Category != CategorySecurity {
		t.Errorf("parsed = %s/%s, want HIGH/security", f.Severity, f.Category)
	}
}

func TestHistory_CurrentHighestConfidence(t *testing.T) {
	h := NewCategoryAssignmentHistory("f1")
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategoryGeneral, AssignedBy: "auto", AssignedAt: ts(0), Confidence: 0.5})
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategorySecurity, AssignedBy: "alice", AssignedAt: ts(5), Confidence: 0.9})
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategoryPrivacy, AssignedBy: "auto", AssignedAt: ts(10), Confidence: 0.4})

	cur := h.Current()
	if cur == nil || cur.Category != CategorySecurity {
		t.Fatalf("Current = %+v, want security assignment", cur)
	}
}

func TestHistory_AtTime(t *testing.T) {
	h := NewCategoryAssignmentHistory("f1")
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategoryGeneral, AssignedAt: ts(0), Confidence: 0.5})
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategorySecurity, AssignedAt: ts(10), Confidence: 0.9})

	at := h.AtTime(ts(5))
	if at == nil || at.Category != CategoryGeneral {
		t.Fatalf("AtTime(t5) = %+v, want general assignment", at)
	}
	at = h.AtTime(ts(15))
	if at == nil || at.Category != CategorySecurity {
		t.Fatalf("AtTime(t15) = %+v, want security assignment", at)
	}
}

func TestHistory_AppendOnlyOrdering(t *testing.T) {
	h := NewCategoryAssignmentHistory("f1")
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategorySecurity, AssignedAt: ts(10), Confidence: 0.9})
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategoryGeneral, AssignedAt: ts(0), Confidence: 0.5})

	if len(h.Assignments) != 2 {
		t.Fatalf("len = %d, want 2", len(h.Assignments))
	}
	if h.Assignments[0].AssignedAt != ts(0) {
		t.Error("history should be ordered by assigned_at after out-of-order Add")
	}
}

func TestHistory_HasConflict(t *testing.T) {
	h := NewCategoryAssignmentHistory("f1")
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategorySecurity, AssignedAt: ts(0), Confidence: 0.9})
	if h.HasConflict() {
		t.Error("single category should not conflict")
	}
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategorySecurity, AssignedAt: ts(1), Confidence: 0.8})
	if h.HasConflict() {
		t.Error("same category twice should not conflict")
	}
	h.Add(CategoryAssignment{FindingID: "f1", Category: CategoryPrivacy, AssignedAt: ts(2), Confidence: 0.7})
	if !h.HasConflict() {
		t.Error("two distinct categories should conflict")
	}
}
