package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"shipgate/internal/health"
	"shipgate/internal/model"
)

// loadFindings reads a JSON array of raw findings and validates every
// record. An unknown severity or category string fails the whole load:
// nothing is coerced, nothing is skipped.
func loadFindings(path string) ([]model.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read findings: %w", err)
	}
	var raw []model.RawFinding
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse findings %s: %w", path, err)
	}
	findings := make([]model.Finding, 0, len(raw))
	for i, r := range raw {
		f, err := model.ParseFinding(r)
		if err != nil {
			return nil, fmt.Errorf("finding %d (%s): %w", i, r.ID, err)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// loadHealth reads a JSON array of engine health records.
func loadHealth(path string) ([]health.EngineHealth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read health: %w", err)
	}
	var signals []health.EngineHealth
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("parse health %s: %w", path, err)
	}
	for i, h := range signals {
		if h.EngineID == "" {
			return nil, fmt.Errorf("health record %d has no engine_id", i)
		}
	}
	return signals, nil
}

// loadAssignments reads a JSON array of category assignments and groups
// them into per-finding append-only histories.
func loadAssignments(path string) (map[string]*model.CategoryAssignmentHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	var assignments []model.CategoryAssignment
	if err := json.Unmarshal(data, &assignments); err != nil {
		return nil, fmt.Errorf("parse assignments %s: %w", path, err)
	}

	histories := make(map[string]*model.CategoryAssignmentHistory)
	for i, a := range assignments {
		if a.FindingID == "" {
			return nil, fmt.Errorf("assignment %d has no finding_id", i)
		}
		if _, err := model.ParseCategory(string(a.Category)); err != nil {
			return nil, fmt.Errorf("assignment %d (%s): %w", i, a.FindingID, err)
		}
		h, ok := histories[a.FindingID]
		if !ok {
			h = model.NewCategoryAssignmentHistory(a.FindingID)
			histories[a.FindingID] = h
		}
		h.Add(a)
	}
	return histories, nil
}

// writeJSON writes v as indented JSON with sorted keys, the artifact
// format every shipgate output uses.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// sortedKeys returns map keys in lexical order for stable CLI output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
