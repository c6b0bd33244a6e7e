package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shipgate/internal/format"
	"shipgate/internal/store"
	"shipgate/internal/temporal"
)

var temporalFlags struct {
	dbPath string
	by     string
	reason string
}

var temporalCmd = &cobra.Command{
	Use:   "temporal",
	Short: "Inspect and manage chronic-finding history",
	Long: `The temporal history tracks finding fingerprints across runs. A
fingerprint that keeps recurring is escalated one severity step until a
human de-escalates it; de-escalation is permanent and audit-logged.

Usage:
  shipgate temporal list
  shipgate temporal de-escalate <fingerprint> --by=triager@example.com --reason="known flake, tracked in BUILD-421"`,
}

var temporalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked fingerprints and their occurrence history",
	Args:  cobra.NoArgs,
	RunE:  runTemporalList,
}

var temporalDeEscalateCmd = &cobra.Command{
	Use:   "de-escalate <fingerprint>",
	Short: "Permanently suppress escalation for a fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemporalDeEscalate,
}

func init() {
	pf := temporalCmd.PersistentFlags()
	pf.StringVar(&temporalFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")

	f := temporalDeEscalateCmd.Flags()
	f.StringVar(&temporalFlags.by, "by", "", "Who is de-escalating (required)")
	f.StringVar(&temporalFlags.reason, "reason", "", "De-escalation reason (required)")

	temporalCmd.AddCommand(temporalListCmd)
	temporalCmd.AddCommand(temporalDeEscalateCmd)
}

func runTemporalList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(temporalFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tracker := temporal.NewTracker(st)
	records := tracker.All()
	if len(records) == 0 {
		fmt.Println("No temporal history.")
		return nil
	}

	t := format.NewTable(format.ASCII)
	t.Header("Fingerprint", "Rule", "Location", "Occurrences", "Runs", "First Seen", "Last Seen", "State")
	for _, r := range records {
		state := "tracked"
		if r.DeEscalated {
			state = fmt.Sprintf("de-escalated by %s", r.DeEscalatedBy)
		} else if r.Escalated {
			state = "escalated"
		}
		t.Row(r.Fingerprint, r.RuleID, format.Truncate(r.Location, 40),
			r.Occurrences, len(r.RunsWithFinding),
			r.FirstSeen.Format("2006-01-02"), r.LastSeen.Format("2006-01-02"), state)
	}
	t.RightAlign(4, 5)
	fmt.Println(t.String())
	return nil
}

func runTemporalDeEscalate(cmd *cobra.Command, args []string) error {
	if temporalFlags.by == "" || temporalFlags.reason == "" {
		return fmt.Errorf("--by and --reason are required")
	}

	st, err := store.Open(temporalFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tracker := temporal.NewTracker(st)
	if err := tracker.DeEscalate(args[0], temporalFlags.by, temporalFlags.reason, time.Now().UTC()); err != nil {
		return err
	}
	if err := tracker.Save(); err != nil {
		return fmt.Errorf("save temporal history: %w", err)
	}
	fmt.Printf("De-escalated %s\n", args[0])
	return nil
}
