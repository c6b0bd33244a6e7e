// Package health tracks which analysis engines were expected to run, which
// actually ran, and which succeeded. Absence of a signal is never treated
// as success: an engine that stays silent is unhealthy.
package health

import (
	"sort"
	"strings"
)

// EngineHealth is one engine's status for a single aggregation run.
type EngineHealth struct {
	EngineID     string `json:"engine_id"`
	Expected     bool   `json:"expected"`
	Ran          bool   `json:"ran"`
	Succeeded    bool   `json:"succeeded"`
	ErrorMessage string `json:"error_message,omitempty"`
	RetryCount   int    `json:"retry_count"`
	MaxRetries   int    `json:"max_retries"`
}

// Healthy reports whether the engine delivered a usable result. An expected
// engine is unhealthy unless it both ran and succeeded.
func (h EngineHealth) Healthy() bool {
	if h.Expected {
		return h.Ran && h.Succeeded
	}
	return true
}

// transientPatterns mark failures worth retrying. This is a heuristic
// string match on error messages, not a complete classification; engines
// with structured error kinds should map them before reporting.
var transientPatterns = []string{
	"timeout",
	"timed out",
	"connection",
	"refused",
	"network",
	"temporarily unavailable",
	"unreachable",
}

// IsTransientFailure reports whether an error message matches the
// transient-failure patterns. Logic and validation errors never match.
func IsTransientFailure(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range transientPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ShouldRetry reports whether the orchestrator should re-invoke the engine:
// retries must remain and the recorded failure must look transient.
func ShouldRetry(h EngineHealth) bool {
	if h.RetryCount >= h.MaxRetries {
		return false
	}
	return IsTransientFailure(h.ErrorMessage)
}

// Registry collects engine health signals for one aggregation run.
// Registration is last-write-wins per engine_id.
type Registry struct {
	byID  map[string]EngineHealth
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]EngineHealth)}
}

// Register records an engine's health. A second report for the same
// engine_id replaces the first.
func (r *Registry) Register(h EngineHealth) {
	if _, seen := r.byID[h.EngineID]; !seen {
		r.order = append(r.order, h.EngineID)
	}
	r.byID[h.EngineID] = h
}

// Get returns the health record for an engine and whether one was
// registered at all.
func (r *Registry) Get(engineID string) (EngineHealth, bool) {
	h, ok := r.byID[engineID]
	return h, ok
}

// ExpectedButMissing reports whether the engine is expected but never
// delivered a health signal, or delivered one marked expected without a
// successful run.
func (r *Registry) ExpectedButMissing(engineID string) bool {
	h, ok := r.byID[engineID]
	if !ok {
		return true
	}
	return h.Expected && !h.Ran
}

// CountFailed returns the number of expected engines that are not healthy.
func (r *Registry) CountFailed() int {
	n := 0
	for _, h := range r.byID {
		if h.Expected && !h.Healthy() {
			n++
		}
	}
	return n
}

// CountHealthy returns the number of expected engines that ran and succeeded.
func (r *Registry) CountHealthy() int {
	n := 0
	for _, h := range r.byID {
		if h.Expected && h.Healthy() {
			n++
		}
	}
	return n
}

// All returns every registered record sorted by engine_id for deterministic
// iteration.
func (r *Registry) All() []EngineHealth {
	out := make([]EngineHealth, 0, len(r.byID))
	for _, h := range r.byID {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EngineID < out[j].EngineID })
	return out
}

// Len returns the number of registered engines.
func (r *Registry) Len() int { return len(r.byID) }
