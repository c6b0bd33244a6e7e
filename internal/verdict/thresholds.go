// Package verdict determines the ship/no-ship gate decision from weighted
// findings, engine health, overrides, and temporal state. The decision
// cascade is fixed and fully deterministic: the same inputs always produce
// the same result, byte for byte.
package verdict

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"shipgate/internal/model"
)

// ErrInvalidThresholds marks malformed mode configuration. Fatal: the
// engine refuses to weigh a single finding against a broken policy.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Mode selects the threshold policy for the pipeline stage being gated.
type Mode string

const (
	ModePR      Mode = "pr"
	ModeMain    Mode = "main"
	ModeRelease Mode = "release"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePR, ModeMain, ModeRelease:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidThresholds, s)
	}
}

// Thresholds is the per-mode gate policy. A value object: loaded fresh per
// aggregation, validated before any finding is processed.
type Thresholds struct {
	Mode                           Mode                       `yaml:"mode" json:"mode"`
	MaxBlockers                    int                        `yaml:"max_blockers" json:"max_blockers" validate:"gte=0"`
	MaxHighs                       int                        `yaml:"max_highs" json:"max_highs" validate:"gte=0"`
	MaxTotalPoints                 int                        `yaml:"max_total_points" json:"max_total_points" validate:"gt=0"`
	CategoryLimits                 map[model.Category]int     `yaml:"category_limits" json:"category_limits"`
	SeverityWeights                map[model.Severity]float64 `yaml:"severity_weights" json:"severity_weights"`
	RequireAllEnginesHealthy       bool                       `yaml:"require_all_engines_healthy" json:"require_all_engines_healthy"`
	MinEnginesRequired             int                        `yaml:"min_engines_required" json:"min_engines_required" validate:"gte=0"`
	EscalationThresholdOccurrences int                        `yaml:"escalation_threshold_occurrences" json:"escalation_threshold_occurrences" validate:"gte=0"`
	EscalationSeverityBump         bool                       `yaml:"escalation_severity_bump" json:"escalation_severity_bump"`
}

var validate = validator.New()

// Validate fails fast with ErrInvalidThresholds on malformed configuration:
// negative limits, non-positive point budget, or negative category limits.
func (t Thresholds) Validate() error {
	if _, err := ParseMode(string(t.Mode)); err != nil {
		return err
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	for cat, limit := range t.CategoryLimits {
		if limit < 0 {
			return fmt.Errorf("%w: negative limit %d for category %s", ErrInvalidThresholds, limit, cat)
		}
	}
	for sev, w := range t.SeverityWeights {
		if w < 0 {
			return fmt.Errorf("%w: negative severity weight %v for %s", ErrInvalidThresholds, w, sev)
		}
	}
	return nil
}

//go:embed default-thresholds.yaml
var defaultThresholdsYAML []byte

type thresholdsFile struct {
	Modes map[Mode]Thresholds `yaml:"modes"`
}

// LoadThresholds reads a policy file with the same modes layout as the
// embedded defaults and returns the validated thresholds for one mode.
func LoadThresholds(path string, mode Mode) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds: %w", err)
	}
	var f thresholdsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Thresholds{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidThresholds, path, err)
	}
	t, ok := f.Modes[mode]
	if !ok {
		return Thresholds{}, fmt.Errorf("%w: %s has no mode %q", ErrInvalidThresholds, path, mode)
	}
	t.Mode = mode
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// DefaultThresholds returns the embedded standard policy for a mode.
func DefaultThresholds(mode Mode) (Thresholds, error) {
	var f thresholdsFile
	if err := yaml.Unmarshal(defaultThresholdsYAML, &f); err != nil {
		return Thresholds{}, fmt.Errorf("parse embedded default-thresholds.yaml: %w", err)
	}
	t, ok := f.Modes[mode]
	if !ok {
		return Thresholds{}, fmt.Errorf("%w: no defaults for mode %q", ErrInvalidThresholds, mode)
	}
	t.Mode = mode
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}
