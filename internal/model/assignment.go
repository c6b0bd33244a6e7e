package model

import "time"

// CategoryAssignment is one audit record of a category being assigned to a
// finding. Records are never mutated; a correction is a new assignment.
type CategoryAssignment struct {
	FindingID  string    `json:"finding_id"`
	Category   Category  `json:"category"`
	AssignedBy string    `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
	Reason     string    `json:"reason,omitempty"`
	Confidence float64   `json:"confidence"`
	Reviewed   bool      `json:"reviewed"`
	Reviewer   string    `json:"reviewer,omitempty"`
}

// CategoryAssignmentHistory keeps every assignment ever made for one
// finding, ordered by assigned_at. Append-only.
type CategoryAssignmentHistory struct {
	FindingID   string               `json:"finding_id"`
	Assignments []CategoryAssignment `json:"assignments"`
}

// NewCategoryAssignmentHistory starts an empty history for a finding.
func NewCategoryAssignmentHistory(findingID string) *CategoryAssignmentHistory {
	return &CategoryAssignmentHistory{FindingID: findingID}
}

// Add appends an assignment, keeping the history ordered by assigned_at.
// Equal timestamps preserve insertion order.
func (h *CategoryAssignmentHistory) Add(a CategoryAssignment) {
	i := len(h.Assignments)
	for i > 0 && h.Assignments[i-1].AssignedAt.After(a.AssignedAt) {
		i--
	}
	h.Assignments = append(h.Assignments, CategoryAssignment{})
	copy(h.Assignments[i+1:], h.Assignments[i:])
	h.Assignments[i] = a
}

// Current returns the assignment with the highest confidence. Ties go to
// the most recent assigned_at; a remaining tie goes to the later entry,
// which keeps the result deterministic. Returns nil for an empty history.
func (h *CategoryAssignmentHistory) Current() *CategoryAssignment {
	return h.AtTime(time.Time{})
}

// AtTime returns the assignment that was current at t: the highest
// confidence among entries with assigned_at <= t. A zero t means "now"
// (no cutoff). Returns nil when nothing qualifies.
func (h *CategoryAssignmentHistory) AtTime(t time.Time) *CategoryAssignment {
	var best *CategoryAssignment
	for i := range h.Assignments {
		a := &h.Assignments[i]
		if !t.IsZero() && a.AssignedAt.After(t) {
			continue
		}
		if best == nil || a.Confidence > best.Confidence ||
			(a.Confidence == best.Confidence && !a.AssignedAt.Before(best.AssignedAt)) {
			best = a
		}
	}
	return best
}

// HasConflict reports whether two or more distinct categories were ever
// assigned to this finding.
func (h *CategoryAssignmentHistory) HasConflict() bool {
	seen := make(map[Category]bool, 2)
	for _, a := range h.Assignments {
		seen[a.Category] = true
		if len(seen) > 1 {
			return true
		}
	}
	return false
}
