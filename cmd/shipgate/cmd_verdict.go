package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shipgate/internal/canonical"
	"shipgate/internal/format"
	"shipgate/internal/health"
	"shipgate/internal/model"
	"shipgate/internal/override"
	"shipgate/internal/store"
	"shipgate/internal/temporal"
	"shipgate/internal/verdict"
	"shipgate/internal/weights"
)

var verdictFlags struct {
	findingsPath    string
	healthPath      string
	assignmentsPath string
	thresholdsPath  string
	weightsPath     string
	mode            string
	runID           string
	dbPath          string
	artifactPath    string
	report          bool
	reportFormat    string
}

var verdictCmd = &cobra.Command{
	Use:   "verdict [findings.json]",
	Short: "Compute the ship/no-ship gate decision for one run",
	Long: `Aggregate findings, engine health, and overrides into a verdict artifact.

Usage:
  shipgate verdict findings.json                      # Findings as positional arg
  shipgate verdict --findings=findings.json --mode=pr
  shipgate verdict findings.json --health=health.json --report

Findings are a JSON array of {id, severity, category, message, location,
rule_id, source_engine}. Unknown severity or category values abort the
run; nothing is coerced to a default.

The verdict artifact is canonical sorted-key JSON: the same inputs always
produce a byte-identical document and the same verdict_id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerdict,
}

func init() {
	f := verdictCmd.Flags()
	f.StringVar(&verdictFlags.findingsPath, "findings", "", "Path to findings JSON array")
	f.StringVar(&verdictFlags.healthPath, "health", "", "Path to engine health JSON array")
	f.StringVar(&verdictFlags.assignmentsPath, "assignments", "", "Path to category assignment JSON array")
	f.StringVar(&verdictFlags.thresholdsPath, "thresholds", "", "Custom thresholds YAML (default: embedded policy)")
	f.StringVar(&verdictFlags.weightsPath, "weights", "", "Custom category weights YAML (default: embedded table)")
	f.StringVar(&verdictFlags.mode, "mode", "pr", "Gate mode: pr, main, or release")
	f.StringVar(&verdictFlags.runID, "run-id", "", "Run identifier for the temporal history (default: derived from findings path)")
	f.StringVar(&verdictFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")
	f.StringVarP(&verdictFlags.artifactPath, "output", "o", "", "Output artifact path (default: .shipgate/output/verdict-<run>.json)")
	f.BoolVar(&verdictFlags.report, "report", false, "Print a human-readable report to stdout")
	f.StringVar(&verdictFlags.reportFormat, "report-format", "ascii", "Report format: ascii or markdown")
}

func runVerdict(cmd *cobra.Command, args []string) error {
	findingsPath := verdictFlags.findingsPath
	if findingsPath == "" && len(args) > 0 {
		findingsPath = args[0]
	}
	if findingsPath == "" {
		return fmt.Errorf("findings path is required\n\nUsage: shipgate verdict <findings.json>\n       shipgate verdict --findings=findings.json")
	}

	mode, err := verdict.ParseMode(verdictFlags.mode)
	if err != nil {
		return err
	}

	th, err := resolveThresholds(mode)
	if err != nil {
		return err
	}
	tbl, err := resolveWeights()
	if err != nil {
		return err
	}

	var (
		findings  []model.Finding
		signals   []health.EngineHealth
		histories map[string]*model.CategoryAssignmentHistory
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		findings, err = loadFindings(findingsPath)
		return err
	})
	if verdictFlags.healthPath != "" {
		g.Go(func() error {
			var err error
			signals, err = loadHealth(verdictFlags.healthPath)
			return err
		})
	}
	if verdictFlags.assignmentsPath != "" {
		g.Go(func() error {
			var err error
			histories, err = loadAssignments(verdictFlags.assignmentsPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	st, err := store.Open(verdictFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tracker := temporal.NewTracker(st)
	persisted, err := st.LoadOverrides()
	if err != nil {
		// Same graceful fallback as the temporal history: an unreadable
		// registry means no overrides, not a failed aggregation.
		fmt.Fprintf(os.Stderr, "warning: load overrides: %v (continuing with none)\n", err)
		persisted = nil
	}
	overrides := override.Restore(persisted)

	healthReg := health.NewRegistry()
	for _, h := range signals {
		healthReg.Register(h)
	}

	runID := verdictFlags.runID
	if runID == "" {
		runID = strings.TrimSuffix(filepath.Base(findingsPath), filepath.Ext(findingsPath))
	}

	eng := verdict.NewEngine(tbl, healthReg, overrides, tracker, th)
	res, err := eng.Determine(findings, histories, runID, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := tracker.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: save temporal history: %v\n", err)
	}
	if err := st.SaveOverrides(overrides.All()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: save overrides: %v\n", err)
	}

	artifactPath := verdictFlags.artifactPath
	if artifactPath == "" {
		artifactPath = filepath.Join(".shipgate", "output", fmt.Sprintf("verdict-%s.json", runID))
	}
	if err := os.MkdirAll(filepath.Dir(artifactPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	raw, err := canonical.MarshalIndent(res)
	if err != nil {
		return fmt.Errorf("serialize verdict: %w", err)
	}
	if err := os.WriteFile(artifactPath, append(raw, '\n'), 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	if verdictFlags.report {
		fmt.Println(verdict.Report(res, format.ParseMode(verdictFlags.reportFormat)))
	}
	fmt.Printf("Verdict: %s (%s)\nArtifact: %s\n", res.Status, res.VerdictID, artifactPath)

	if res.Status == verdict.StatusNoShip {
		// Non-zero exit so CI pipelines can gate directly on this command.
		os.Exit(2)
	}
	return nil
}

func resolveThresholds(mode verdict.Mode) (verdict.Thresholds, error) {
	if verdictFlags.thresholdsPath != "" {
		return verdict.LoadThresholds(verdictFlags.thresholdsPath, mode)
	}
	return verdict.DefaultThresholds(mode)
}

func resolveWeights() (*weights.Table, error) {
	if verdictFlags.weightsPath != "" {
		return weights.Load(verdictFlags.weightsPath)
	}
	return weights.Default()
}
