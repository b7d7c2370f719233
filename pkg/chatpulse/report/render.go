package report

import (
	"fmt"
	"strings"
	"time"
)

// Render formats r as the plain-text summary posted back to the server.
func Render(r WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Weekly report for %s (%s to %s)\n",
		r.ServerID,
		r.WeekStart.Format(time.DateOnly),
		r.GeneratedAt.Format(time.DateOnly))
	fmt.Fprintf(&b, "Total messages: %d\n", r.TotalMessages)

	b.WriteString("\nTop topics:\n")
	if len(r.TopTopics) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, t := range r.TopTopics {
		fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, t.Term, t.Count)
	}

	b.WriteString("\nMost active:\n")
	if len(r.ActiveMembers) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, m := range r.ActiveMembers {
		fmt.Fprintf(&b, "  %d. %s: %d messages\n", i+1, m.AuthorID, m.Messages)
	}

	b.WriteString("\nMost influential:\n")
	if len(r.InfluentialMembers) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, m := range r.InfluentialMembers {
		fmt.Fprintf(&b, "  %d. %s: score %d\n", i+1, m.AuthorID, m.Score)
	}

	if len(r.DailyVolume) > 0 {
		b.WriteString("\nDaily volume:\n")
		for _, d := range r.DailyVolume {
			fmt.Fprintf(&b, "  %s  %4d  %+d (%+.1f%%)\n",
				d.Day.Format("Mon 01-02"), d.Messages, d.Delta, d.ChangePct)
		}
	}
	return b.String()
}
