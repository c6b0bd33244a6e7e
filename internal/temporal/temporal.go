// Package temporal tracks per-fingerprint occurrence history across
// aggregation runs, so chronically recurring findings can be escalated one
// severity step and humans can permanently de-escalate noisy ones.
package temporal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"shipgate/internal/logging"
	"shipgate/internal/model"
)

// Fingerprint returns the stable identity of a logical issue across runs:
// a short content hash of (rule_id, location).
func Fingerprint(ruleID, location string) string {
	sum := sha256.Sum256([]byte(ruleID + "\x1f" + location))
	return hex.EncodeToString(sum[:8])
}

// SeverityEvent is one observed severity for a fingerprint in one run.
type SeverityEvent struct {
	RunID    string         `json:"run_id"`
	Severity model.Severity `json:"severity"`
	SeenAt   time.Time      `json:"seen_at"`
}

// Record is the persistent occurrence history for one fingerprint.
// Entries are only ever appended.
type Record struct {
	Fingerprint        string          `json:"fingerprint"`
	RuleID             string          `json:"rule_id"`
	Location           string          `json:"location"`
	FirstSeen          time.Time       `json:"first_seen"`
	LastSeen           time.Time       `json:"last_seen"`
	Occurrences        int             `json:"occurrences"`
	RunsWithFinding    []string        `json:"runs_with_finding"`
	SeverityHistory    []SeverityEvent `json:"severity_history"`
	Escalated          bool            `json:"escalated"`
	EscalationReason   string          `json:"escalation_reason,omitempty"`
	DeEscalated        bool            `json:"de_escalated"`
	DeEscalatedBy      string          `json:"de_escalated_by,omitempty"`
	DeEscalatedAt      time.Time       `json:"de_escalated_at,omitempty"`
	DeEscalationReason string          `json:"de_escalation_reason,omitempty"`
}

// Summary freezes the explainability slice of a record.
func (r *Record) Summary() *model.TemporalSummary {
	return &model.TemporalSummary{
		Fingerprint:     r.Fingerprint,
		FirstSeen:       r.FirstSeen,
		LastSeen:        r.LastSeen,
		Occurrences:     r.Occurrences,
		RunsWithFinding: len(r.RunsWithFinding),
		Escalated:       r.Escalated,
		DeEscalated:     r.DeEscalated,
	}
}

// ShouldEscalate reports whether this record alone justifies a severity
// bump: enough occurrences and never de-escalated by a human.
func (r *Record) ShouldEscalate(threshold int) bool {
	if r == nil || threshold <= 0 {
		return false
	}
	if r.DeEscalated {
		return false
	}
	return r.Occurrences >= threshold
}

// Store is the narrow persistence contract the tracker needs. The engine
// stays side-effect-free; an in-memory fake satisfies this in tests.
type Store interface {
	LoadTemporal() (map[string]*Record, error)
	SaveTemporal(map[string]*Record) error
}

// Tracker owns the in-memory occurrence state for one aggregation run,
// loaded from a Store at the start and saved at the end.
type Tracker struct {
	records map[string]*Record
	store   Store
}

// NewTracker loads history from the store. A missing or corrupt store is
// non-fatal: the tracker logs the failure and starts from empty state.
func NewTracker(store Store) *Tracker {
	t := &Tracker{records: make(map[string]*Record), store: store}
	if store == nil {
		return t
	}
	loaded, err := store.LoadTemporal()
	if err != nil {
		logging.New("temporal").Warn("temporal store unreadable, starting empty",
			"error", err)
		return t
	}
	if loaded != nil {
		t.records = loaded
	}
	return t
}

// Save persists the tracker state. Call exactly once, after the verdict is
// determined; concurrent runs against the same store must serialize around
// this load/save cycle.
func (t *Tracker) Save() error {
	if t.store == nil {
		return nil
	}
	if err := t.store.SaveTemporal(t.records); err != nil {
		return fmt.Errorf("save temporal state: %w", err)
	}
	return nil
}

// Get returns the record for a fingerprint, or nil.
func (t *Tracker) Get(fp string) *Record {
	return t.records[fp]
}

// All returns every record sorted by fingerprint.
func (t *Tracker) All() []*Record {
	out := make([]*Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out
}

// RecordOccurrence notes one sighting of a fingerprint in the given run and
// returns the updated record. History is append-only; nothing is removed.
func (t *Tracker) RecordOccurrence(f model.Finding, runID string, now time.Time) *Record {
	fp := Fingerprint(f.RuleID, f.Location)
	r, ok := t.records[fp]
	if !ok {
		r = &Record{
			Fingerprint: fp,
			RuleID:      f.RuleID,
			Location:    f.Location,
			FirstSeen:   now,
		}
		t.records[fp] = r
	}
	r.LastSeen = now
	r.Occurrences++
	if len(r.RunsWithFinding) == 0 || r.RunsWithFinding[len(r.RunsWithFinding)-1] != runID {
		r.RunsWithFinding = append(r.RunsWithFinding, runID)
	}
	r.SeverityHistory = append(r.SeverityHistory, SeverityEvent{
		RunID: runID, Severity: f.Severity, SeenAt: now,
	})
	return r
}

// ShouldEscalate reports whether the fingerprint has recurred often enough
// to warrant a severity bump. Once de-escalated, a fingerprint never
// escalates again.
func (t *Tracker) ShouldEscalate(fp string, threshold int) bool {
	return t.records[fp].ShouldEscalate(threshold)
}

// Escalate marks the fingerprint escalated. One-way unless a human
// de-escalates it.
func (t *Tracker) Escalate(fp, reason string) {
	r, ok := t.records[fp]
	if !ok {
		return
	}
	r.Escalated = true
	r.EscalationReason = reason
}

// DeEscalate reverses an escalation and permanently suppresses future
// escalation for this fingerprint. The decision is audit-logged.
func (t *Tracker) DeEscalate(fp, by, reason string, now time.Time) error {
	r, ok := t.records[fp]
	if !ok {
		return fmt.Errorf("de-escalate: unknown fingerprint %s", fp)
	}
	r.Escalated = false
	r.DeEscalated = true
	r.DeEscalatedBy = by
	r.DeEscalatedAt = now
	r.DeEscalationReason = reason
	logging.New("temporal").Info("fingerprint de-escalated",
		"fingerprint", fp,
		"by", by,
		"reason", reason,
	)
	return nil
}
