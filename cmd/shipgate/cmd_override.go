package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shipgate/internal/format"
	"shipgate/internal/override"
	"shipgate/internal/store"
)

var overrideFlags struct {
	dbPath     string
	approvedBy string
	scope      string
	ttl        time.Duration
	reason     string
	hours      int
	all        bool
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage governed threshold exceptions",
	Long: `Overrides are time-boxed, single-use, auditable exceptions to a gate
threshold. Every override names who approved it, why, and when it
expires; consumption, revocation, and extension are all kept in the
audit trail.

Usage:
  shipgate override add --approved-by=lead@example.com --scope="max_highs: 10" --ttl=24h --reason="hotfix window"
  shipgate override list
  shipgate override revoke <override-id> --approved-by=lead@example.com --reason="no longer needed"
  shipgate override extend <override-id> --hours=24 --approved-by=lead@example.com --reason="fix slipped a day"`,
}

var overrideAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new override",
	Args:  cobra.NoArgs,
	RunE:  runOverrideAdd,
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List overrides in registration order",
	Args:  cobra.NoArgs,
	RunE:  runOverrideList,
}

var overrideRevokeCmd = &cobra.Command{
	Use:   "revoke <override-id>",
	Short: "Revoke an override, keeping it in the audit trail",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrideRevoke,
}

var overrideExtendCmd = &cobra.Command{
	Use:   "extend <override-id>",
	Short: "Extend an override via a chained child override",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrideExtend,
}

func init() {
	pf := overrideCmd.PersistentFlags()
	pf.StringVar(&overrideFlags.dbPath, "db", store.DefaultDBPath, "Store DB path")

	f := overrideAddCmd.Flags()
	f.StringVar(&overrideFlags.approvedBy, "approved-by", "", "Approver identity (required)")
	f.StringVar(&overrideFlags.scope, "scope", "", `Scope, e.g. "max_highs: 10" (required)`)
	f.DurationVar(&overrideFlags.ttl, "ttl", 24*time.Hour, "Time until expiry")
	f.StringVar(&overrideFlags.reason, "reason", "", "Why this exception is justified (required)")

	rf := overrideRevokeCmd.Flags()
	rf.StringVar(&overrideFlags.approvedBy, "approved-by", "", "Who is revoking (required)")
	rf.StringVar(&overrideFlags.reason, "reason", "", "Revocation reason (required)")

	ef := overrideExtendCmd.Flags()
	ef.IntVar(&overrideFlags.hours, "hours", 0, "Hours to extend past the current expiry (required)")
	ef.StringVar(&overrideFlags.approvedBy, "approved-by", "", "Who approved the extension (required)")
	ef.StringVar(&overrideFlags.reason, "reason", "", "Extension reason (required)")

	lf := overrideListCmd.Flags()
	lf.BoolVar(&overrideFlags.all, "all", false, "Include used, revoked, and expired overrides")

	overrideCmd.AddCommand(overrideAddCmd)
	overrideCmd.AddCommand(overrideListCmd)
	overrideCmd.AddCommand(overrideRevokeCmd)
	overrideCmd.AddCommand(overrideExtendCmd)
}

// withOverrideRegistry loads the persisted registry, runs fn, and saves the
// registry back when fn succeeds.
func withOverrideRegistry(fn func(r *override.Registry, now time.Time) error) error {
	st, err := store.Open(overrideFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	persisted, err := st.LoadOverrides()
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	r := override.Restore(persisted)

	if err := fn(r, time.Now().UTC()); err != nil {
		return err
	}
	return st.SaveOverrides(r.All())
}

func runOverrideAdd(cmd *cobra.Command, args []string) error {
	if overrideFlags.approvedBy == "" || overrideFlags.scope == "" || overrideFlags.reason == "" {
		return fmt.Errorf("--approved-by, --scope, and --reason are all required")
	}
	scope, err := override.ParseScope(overrideFlags.scope)
	if err != nil {
		return err
	}

	return withOverrideRegistry(func(r *override.Registry, now time.Time) error {
		o := &override.Override{
			OverrideID: uuid.NewString(),
			ApprovedBy: overrideFlags.approvedBy,
			ApprovedAt: now,
			ExpiresAt:  now.Add(overrideFlags.ttl),
			Reason:     overrideFlags.reason,
			Scope:      scope,
		}
		if err := r.Register(o, now); err != nil {
			return err
		}
		fmt.Printf("Registered override %s (%s), expires %s\n",
			o.OverrideID, o.Scope.String(), o.ExpiresAt.Format(time.RFC3339))
		return nil
	})
}

func runOverrideList(cmd *cobra.Command, args []string) error {
	return withOverrideRegistry(func(r *override.Registry, now time.Time) error {
		t := format.NewTable(format.ASCII)
		t.Header("ID", "Scope", "Approved By", "Expires", "State", "Reason")
		shown := 0
		for _, o := range r.All() {
			if !o.Valid(now) && !overrideFlags.all {
				continue
			}
			t.Row(o.OverrideID, o.Scope.String(), o.ApprovedBy,
				o.ExpiresAt.Format("2006-01-02 15:04"), overrideState(o, now),
				format.Truncate(o.Reason, 40))
			shown++
		}
		if shown == 0 {
			fmt.Println("No overrides.")
			return nil
		}
		fmt.Println(t.String())
		return nil
	})
}

func overrideState(o *override.Override, now time.Time) string {
	switch {
	case o.Revoked:
		return "revoked"
	case o.Used:
		return fmt.Sprintf("used by %s", o.UsedForVerdict)
	case !now.Before(o.ExpiresAt):
		return "expired"
	default:
		return "active"
	}
}

func runOverrideRevoke(cmd *cobra.Command, args []string) error {
	if overrideFlags.approvedBy == "" || overrideFlags.reason == "" {
		return fmt.Errorf("--approved-by and --reason are required")
	}
	return withOverrideRegistry(func(r *override.Registry, now time.Time) error {
		o := r.Get(args[0])
		if o == nil {
			return fmt.Errorf("unknown override %s", args[0])
		}
		r.Revoke(o, overrideFlags.approvedBy, overrideFlags.reason, now)
		fmt.Printf("Revoked override %s\n", o.OverrideID)
		return nil
	})
}

func runOverrideExtend(cmd *cobra.Command, args []string) error {
	if overrideFlags.hours <= 0 || overrideFlags.approvedBy == "" || overrideFlags.reason == "" {
		return fmt.Errorf("--hours, --approved-by, and --reason are required")
	}
	return withOverrideRegistry(func(r *override.Registry, now time.Time) error {
		o := r.Get(args[0])
		if o == nil {
			return fmt.Errorf("unknown override %s", args[0])
		}
		child, err := r.Extend(o, overrideFlags.hours, overrideFlags.approvedBy, overrideFlags.reason, now)
		if err != nil {
			return err
		}
		fmt.Printf("Extended %s via %s, new expiry %s\n",
			o.OverrideID, child.OverrideID, child.ExpiresAt.Format(time.RFC3339))
		return nil
	})
}
