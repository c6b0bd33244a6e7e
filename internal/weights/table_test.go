package weights

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"shipgate/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDefault_LoadsEmbedded(t *testing.T) {
	tbl, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if tbl.WeightVersion != "1.0.0" {
		t.Errorf("WeightVersion = %q, want 1.0.0", tbl.WeightVersion)
	}
	if got := tbl.WeightOf(model.CategorySecurity); got != 2.0 {
		t.Errorf("WeightOf(security) = %v, want 2.0", got)
	}
}

func TestWeightOf_UnknownDefaultsToOne(t *testing.T) {
	tbl := &Table{Weights: map[model.Category]float64{model.CategorySecurity: 2.0}}
	if got := tbl.WeightOf(model.CategoryUI); got != 1.0 {
		t.Errorf("WeightOf(unlisted) = %v, want 1.0", got)
	}
}

func TestUpdate_BumpsVersionAndRecordsReviewer(t *testing.T) {
	tbl, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	err = tbl.Update(map[model.Category]float64{model.CategorySecurity: 3.0}, "alice", "raise security", testNow)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tbl.WeightVersion != "1.1.0" {
		t.Errorf("WeightVersion = %q, want 1.1.0", tbl.WeightVersion)
	}
	if tbl.ReviewedBy != "alice" {
		t.Errorf("ReviewedBy = %q, want alice", tbl.ReviewedBy)
	}
	if !tbl.LastReviewed.Equal(testNow) {
		t.Errorf("LastReviewed = %v, want %v", tbl.LastReviewed, testNow)
	}
	if got := tbl.WeightOf(model.CategorySecurity); got != 3.0 {
		t.Errorf("WeightOf(security) = %v, want 3.0", got)
	}
}

func TestUpdate_EmptyReviewerFails(t *testing.T) {
	tbl, _ := Default()
	err := tbl.Update(map[model.Category]float64{model.CategorySecurity: 3.0}, "", "note", testNow)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestUpdate_NegativeWeightFails(t *testing.T) {
	tbl, _ := Default()
	err := tbl.Update(map[model.Category]float64{model.CategoryBuild: -1}, "alice", "", testNow)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestReviewOverdue(t *testing.T) {
	tbl := &Table{LastReviewed: testNow, ReviewFrequencyDays: 90}
	if tbl.ReviewOverdue(testNow.AddDate(0, 0, 89)) {
		t.Error("should not be overdue within the window")
	}
	if !tbl.ReviewOverdue(testNow.AddDate(0, 0, 91)) {
		t.Error("should be overdue past the window")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	tbl := &Table{Weights: map[model.Category]float64{model.CategorySecurity: 2.0}}
	snap := tbl.Snapshot()
	snap["security"] = 99
	if tbl.WeightOf(model.CategorySecurity) != 2.0 {
		t.Error("mutating the snapshot must not touch the live table")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	tbl, _ := Default()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := tbl.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(tbl.Weights, loaded.Weights); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
	if loaded.WeightVersion != tbl.WeightVersion {
		t.Errorf("WeightVersion = %q, want %q", loaded.WeightVersion, tbl.WeightVersion)
	}
}
