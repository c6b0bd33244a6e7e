package verdict

import (
	"fmt"
	"strings"

	"shipgate/internal/format"
)

// Report renders a result for humans. The JSON artifact is the source of
// truth; this is the view pasted into terminals and PR comments.
func Report(res *Result, mode format.Mode) string {
	var b strings.Builder

	if mode == format.Markdown {
		fmt.Fprintf(&b, "## Gate: %s\n\n", res.Status)
	} else {
		fmt.Fprintf(&b, "GATE: %s\n\n", res.Status)
	}
	fmt.Fprintf(&b, "Verdict %s | run %s | mode %s | weights %s\n",
		res.VerdictID, res.RunID, res.Mode, res.WeightVersion)
	fmt.Fprintf(&b, "Generated %s\n\n", res.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString(summaryTable(res, mode))
	b.WriteString("\n\n")

	if len(res.Engines) > 0 {
		b.WriteString(engineTable(res, mode))
		b.WriteString("\n\n")
	}
	if len(res.Categories) > 0 {
		b.WriteString(categoryTable(res, mode))
		b.WriteString("\n\n")
	}
	if len(res.TopFindings) > 0 {
		b.WriteString(findingsTable(res, mode))
		b.WriteString("\n\n")
	}

	writeReasons(&b, "No-ship reasons", res.NoShipReasons)
	writeReasons(&b, "Degradation reasons", res.DegradationReasons)
	writeReasons(&b, "Ship reasons", res.ShipReasons)

	if len(res.OverridesApplied) > 0 {
		b.WriteString("Overrides applied:\n")
		for _, o := range res.OverridesApplied {
			fmt.Fprintf(&b, "  - %s by %s (%s): %s\n", o.OverrideID, o.ApprovedBy, o.Scope, o.Reason)
		}
		b.WriteString("\n")
	}
	if len(res.TemporalEscalations) > 0 {
		b.WriteString("Temporal escalations:\n")
		for _, esc := range res.TemporalEscalations {
			fmt.Fprintf(&b, "  - %s: %s -> %s (%s)\n", esc.FindingID, esc.From, esc.To, esc.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func summaryTable(res *Result, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("Findings", "Blockers", "High", "Medium", "Low", "Info", "Points")
	t.Row(
		res.Summary.TotalFindings,
		res.Summary.Blockers,
		res.Summary.Highs,
		res.Summary.Mediums,
		res.Summary.Lows,
		res.Summary.Infos,
		format.FmtPoints(res.Summary.TotalPoints),
	)
	t.RightAlign(1, 2, 3, 4, 5, 6, 7)
	return t.String()
}

func engineTable(res *Result, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("Engine", "Findings", "Blockers", "High", "Points", "Healthy", "Passed")
	for _, eb := range res.Engines {
		healthy := format.BoolMark(eb.Healthy)
		if !eb.HealthSignal {
			healthy = "?"
		}
		t.Row(eb.EngineID, eb.Findings, eb.Blockers, eb.Highs,
			format.FmtPoints(eb.Points), healthy, format.BoolMark(eb.Passed))
	}
	t.RightAlign(2, 3, 4, 5)
	return t.String()
}

func categoryTable(res *Result, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("Category", "Findings", "Points", "Limit")
	for _, cb := range res.Categories {
		limit := "-"
		if cb.Limit > 0 {
			limit = fmt.Sprintf("%d", cb.Limit)
			if cb.LimitExceeded {
				limit += " (exceeded)"
			}
		}
		t.Row(string(cb.Category), cb.Findings, format.FmtPoints(cb.Points), limit)
	}
	t.RightAlign(2, 3)
	return t.String()
}

func findingsTable(res *Result, mode format.Mode) string {
	t := format.NewTable(mode)
	t.Header("Severity", "Category", "Points", "Rule", "Location", "Message")
	for _, wf := range res.TopFindings {
		sev := string(wf.Severity)
		if wf.EscalatedFrom != "" {
			sev = fmt.Sprintf("%s (from %s)", wf.Severity, wf.EscalatedFrom)
		}
		t.Row(sev, string(wf.Category), format.FmtPoints(wf.Points),
			wf.RuleID, format.Truncate(wf.Location, 40), format.Truncate(wf.Message, 60))
	}
	t.RightAlign(3)
	return t.String()
}

func writeReasons(b *strings.Builder, title string, reasons []string) {
	if len(reasons) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, r := range reasons {
		fmt.Fprintf(b, "  - %s\n", r)
	}
	b.WriteString("\n")
}
