// Package weights holds the governed category weight table. Weights are not
// bare multipliers: every change bumps the table version and records a
// reviewer, so any verdict can be reconciled against the exact weights it
// was computed with.
package weights

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"shipgate/internal/model"
)

// ErrInvalidConfig is returned for malformed weight table updates, such as
// an empty reviewer or an unparseable version.
var ErrInvalidConfig = errors.New("invalid weight config")

//go:embed default-weights.yaml
var defaultWeightsYAML []byte

// Table is the versioned category weight configuration.
type Table struct {
	WeightVersion       string                     `yaml:"weight_version" json:"weight_version"`
	ReviewedBy          string                     `yaml:"reviewed_by" json:"reviewed_by"`
	ReviewNotes         string                     `yaml:"review_notes" json:"review_notes"`
	LastReviewed        time.Time                  `yaml:"last_reviewed" json:"last_reviewed"`
	ReviewFrequencyDays int                        `yaml:"review_frequency_days" json:"review_frequency_days"`
	Weights             map[model.Category]float64 `yaml:"weights" json:"weights"`
}

// Default loads the embedded standard weight table.
func Default() (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(defaultWeightsYAML, &t); err != nil {
		return nil, fmt.Errorf("parse embedded default-weights.yaml: %w", err)
	}
	return &t, nil
}

// Load reads a weight table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse weight table %s: %w", path, err)
	}
	if _, err := semver.NewVersion(t.WeightVersion); err != nil {
		return nil, fmt.Errorf("%w: weight_version %q: %v", ErrInvalidConfig, t.WeightVersion, err)
	}
	return &t, nil
}

// Save writes the table as YAML.
func (t *Table) Save(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal weight table: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write weight table: %w", err)
	}
	return nil
}

// WeightOf returns the governed weight for a category. Categories absent
// from the table default to 1.0 so forward-compatible additions do not
// fail verdicts computed against an older table.
func (t *Table) WeightOf(cat model.Category) float64 {
	if w, ok := t.Weights[cat]; ok {
		return w
	}
	return 1.0
}

// Update replaces the weight map, bumps the minor version, and records the
// reviewer and notes. An empty reviewer fails with ErrInvalidConfig: weight
// changes are governed, never anonymous.
func (t *Table) Update(newWeights map[model.Category]float64, reviewedBy, notes string, now time.Time) error {
	if reviewedBy == "" {
		return fmt.Errorf("%w: reviewed_by is required", ErrInvalidConfig)
	}
	for cat, w := range newWeights {
		if w < 0 {
			return fmt.Errorf("%w: negative weight %v for %s", ErrInvalidConfig, w, cat)
		}
	}
	v, err := semver.NewVersion(t.WeightVersion)
	if err != nil {
		return fmt.Errorf("%w: current weight_version %q: %v", ErrInvalidConfig, t.WeightVersion, err)
	}
	bumped := v.IncMinor()

	t.Weights = make(map[model.Category]float64, len(newWeights))
	for cat, w := range newWeights {
		t.Weights[cat] = w
	}
	t.WeightVersion = bumped.String()
	t.ReviewedBy = reviewedBy
	t.ReviewNotes = notes
	t.LastReviewed = now
	return nil
}

// ReviewOverdue reports whether the table is past its review window.
// Derivable purely from last_reviewed + review_frequency_days.
func (t *Table) ReviewOverdue(now time.Time) bool {
	if t.ReviewFrequencyDays <= 0 {
		return false
	}
	deadline := t.LastReviewed.AddDate(0, 0, t.ReviewFrequencyDays)
	return now.After(deadline)
}

// Snapshot returns a defensive copy of the weight map keyed by plain
// strings, for embedding into a verdict result.
func (t *Table) Snapshot() map[string]float64 {
	snap := make(map[string]float64, len(t.Weights))
	for cat, w := range t.Weights {
		snap[string(cat)] = w
	}
	return snap
}
