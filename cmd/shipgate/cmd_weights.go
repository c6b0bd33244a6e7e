package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shipgate/internal/format"
	"shipgate/internal/model"
	"shipgate/internal/weights"
)

var weightsFlags struct {
	path       string
	reviewedBy string
	notes      string
}

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show and govern the category weight table",
	Long: `The category weight table multiplies finding base points per category.
Every change bumps the table version and records who reviewed it; each
verdict snapshots the weights it used, so old verdicts stay explainable
after the table moves on.

Usage:
  shipgate weights show
  shipgate weights update security=2.5 ui=0.5 --file=weights.yaml --reviewed-by=lead@example.com`,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current weight table and review status",
	Args:  cobra.NoArgs,
	RunE:  runWeightsShow,
}

var weightsUpdateCmd = &cobra.Command{
	Use:   "update <category>=<weight> ...",
	Short: "Update weights, bumping the table version",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWeightsUpdate,
}

func init() {
	pf := weightsCmd.PersistentFlags()
	pf.StringVar(&weightsFlags.path, "file", "", "Weight table YAML path (default: embedded table)")

	f := weightsUpdateCmd.Flags()
	f.StringVar(&weightsFlags.reviewedBy, "reviewed-by", "", "Reviewer identity (required)")
	f.StringVar(&weightsFlags.notes, "notes", "", "Review notes")

	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsUpdateCmd)
}

func loadWeightTable() (*weights.Table, error) {
	if weightsFlags.path != "" {
		return weights.Load(weightsFlags.path)
	}
	return weights.Default()
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	tbl, err := loadWeightTable()
	if err != nil {
		return err
	}

	fmt.Printf("Version:   %s\n", tbl.WeightVersion)
	fmt.Printf("Reviewed:  %s by %s\n", tbl.LastReviewed.Format("2006-01-02"), tbl.ReviewedBy)
	if tbl.ReviewOverdue(time.Now().UTC()) {
		fmt.Printf("Status:    REVIEW OVERDUE (every %d days)\n", tbl.ReviewFrequencyDays)
	}
	if tbl.ReviewNotes != "" {
		fmt.Printf("Notes:     %s\n", tbl.ReviewNotes)
	}
	fmt.Println()

	t := format.NewTable(format.ASCII)
	t.Header("Category", "Weight")
	snapshot := tbl.Snapshot()
	for _, cat := range sortedKeys(snapshot) {
		t.Row(cat, fmt.Sprintf("%.2f", snapshot[cat]))
	}
	t.RightAlign(2)
	fmt.Println(t.String())
	return nil
}

func runWeightsUpdate(cmd *cobra.Command, args []string) error {
	if weightsFlags.reviewedBy == "" {
		return fmt.Errorf("--reviewed-by is required: weight changes are a governed review")
	}
	if weightsFlags.path == "" {
		return fmt.Errorf("--file is required: the embedded default table is read-only")
	}

	tbl, err := loadWeightTable()
	if err != nil {
		return err
	}

	// Update replaces the whole map, so carry the untouched categories over.
	newWeights := make(map[model.Category]float64, len(tbl.Weights))
	for cat, w := range tbl.Weights {
		newWeights[cat] = w
	}
	changed := 0
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected <category>=<weight>, got %q", arg)
		}
		cat, err := model.ParseCategory(name)
		if err != nil {
			return err
		}
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("weight for %s: %w", name, err)
		}
		newWeights[cat] = w
		changed++
	}

	oldVersion := tbl.WeightVersion
	if err := tbl.Update(newWeights, weightsFlags.reviewedBy, weightsFlags.notes, time.Now().UTC()); err != nil {
		return err
	}
	if err := tbl.Save(weightsFlags.path); err != nil {
		return fmt.Errorf("save weight table: %w", err)
	}
	fmt.Printf("Updated %d weight(s): %s -> %s\n", changed, oldVersion, tbl.WeightVersion)
	return nil
}
