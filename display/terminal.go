// Package display renders metrics and reaction tables for a terminal.
package display

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/brettboylen/reaction-tracker/models"
	"github.com/brettboylen/reaction-tracker/table"
)

const maxTitleLen = 48

// TerminalFormatter formats metrics and tables for terminal display.
type TerminalFormatter struct {
	now func() time.Time
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{now: time.Now}
}

// FormatMetrics formats the summary counters and top lists.
func (f *TerminalFormatter) FormatMetrics(m models.Metrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reactions: %s   Videos: %s   Channels: %s\n",
		humanize.Comma(int64(m.Reactions)),
		humanize.Comma(int64(m.Videos)),
		humanize.Comma(int64(m.Channels)),
	)

	b.WriteString("\nRecently added\n")
	if len(m.Recent) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, v := range m.Recent {
		fmt.Fprintf(&b, "  %s\n", f.TruncateText(v.Title, maxTitleLen))
	}

	b.WriteString("\nMost reacted to videos\n")
	if len(m.TopVideos) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, v := range m.TopVideos {
		fmt.Fprintf(&b, "  %-*s %d\n", maxTitleLen, f.TruncateText(v.Title, maxTitleLen), v.Count)
	}

	b.WriteString("\nTop Channels\n")
	if len(m.TopChannels) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range m.TopChannels {
		fmt.Fprintf(&b, "  %-*s %d\n", maxTitleLen, f.TruncateText(c.Title, maxTitleLen), c.Count)
	}

	return b.String()
}

// FormatTable formats an assembled table view.
func (f *TerminalFormatter) FormatTable(view table.View) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	headers := make([]string, 0, len(view.Headers))
	for _, h := range view.Headers {
		headers = append(headers, strings.ToUpper(h.Label)+sortMarker(h.Sorted))
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	for _, row := range view.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, f.formatCell(row.Reaction, cell))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	if len(view.Rows) == 0 {
		b.WriteString("No reactions to display.\n")
	}
	return b.String()
}

// formatCell renders video columns with the video title rather than the sort value
func (f *TerminalFormatter) formatCell(r models.Reaction, cell table.Cell) string {
	switch cell.ColumnID {
	case "video":
		return f.TruncateText(r.ReactionTo.Title, maxTitleLen)
	case "reaction":
		return f.TruncateText(r.Reaction.Title, maxTitleLen)
	}

	switch v := cell.Value.(type) {
	case nil:
		return ""
	case time.Time:
		return f.FormatTimestamp(v)
	case string:
		return f.TruncateText(v, maxTitleLen)
	default:
		return fmt.Sprint(v)
	}
}

// FormatTimestamp formats a timestamp relative to now.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, f.now(), "ago", "from now")
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

func sortMarker(d table.Direction) string {
	switch d {
	case table.Ascending:
		return " ↑"
	case table.Descending:
		return " ↓"
	default:
		return ""
	}
}
