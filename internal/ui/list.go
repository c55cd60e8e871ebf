package ui

import (
	"fmt"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
)

const titleWidth = 60

// ItemLine renders one list row. n is the 1-based index the CLI commands
// accept; n <= 0 omits it.
func ItemLine(n int, it model.Item, today model.Date) string {
	t := current
	var b strings.Builder
	if n > 0 {
		b.WriteString(t.Muted.Render(fmt.Sprintf("%2d.", n)))
		b.WriteByte(' ')
	}
	if it.Completed {
		b.WriteString(t.Success.Render(t.BoxChecked))
	} else {
		b.WriteString(t.Muted.Render(t.BoxUnchecked))
	}
	b.WriteByte(' ')

	text := strings.TrimRight(Fit(it.Text, titleWidth), " ")
	if it.Completed {
		text = t.Done.Render(text)
	}
	b.WriteString(text)

	if it.Category != "" {
		b.WriteString(" " + t.Accent.Render("#"+it.Category))
	}
	if it.Deadline != nil {
		due := t.SymDue + " " + it.Deadline.String()
		switch {
		case query.IsOverdue(it, today):
			b.WriteString(" " + t.Overdue.Render(due+" overdue"))
		case it.Completed:
			b.WriteString(" " + t.Muted.Render(due))
		default:
			b.WriteString(" " + t.Pending.Render(due))
		}
	}
	return b.String()
}

// Keep selects which items a list shows. Nil keeps everything.
type Keep func(model.Item) bool

// FlatLines numbers items by their position in items, so the numbers stay
// valid for the index arguments of done and rm even when keep hides some.
func FlatLines(items []model.Item, today model.Date, keep Keep) []string {
	var out []string
	for i, it := range items {
		if keep == nil || keep(it) {
			out = append(out, ItemLine(i+1, it, today))
		}
	}
	if len(out) == 0 {
		return []string{current.Muted.Render("no items")}
	}
	return out
}

// GroupLines splits kept items into Pending and Done, numbered like FlatLines.
func GroupLines(items []model.Item, today model.Date, keep Keep) []string {
	var pend, done []string
	for i, it := range items {
		if keep != nil && !keep(it) {
			continue
		}
		if it.Completed {
			done = append(done, ItemLine(i+1, it, today))
		} else {
			pend = append(pend, ItemLine(i+1, it, today))
		}
	}
	none := current.Muted.Render("(none)")
	var lines []string
	lines = append(lines, current.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, none)
	}
	lines = append(lines, pend...)
	lines = append(lines, "")
	lines = append(lines, current.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, none)
	}
	lines = append(lines, done...)
	return lines
}

type ListOptions struct {
	Grouped bool
	Keep    Keep
	Tip     string
}

// ListPanel is the framed `ls` output: summary, progress, rows and a tip.
// The summary always counts every item.
func ListPanel(items []model.Item, today model.Date, opt ListOptions) string {
	d, p := query.Stats(items)
	lines := []string{
		Header(d, p),
		ProgressBar(d, d+p, 28),
		"",
	}
	if opt.Grouped {
		lines = append(lines, GroupLines(items, today, opt.Keep)...)
	} else {
		lines = append(lines, FlatLines(items, today, opt.Keep)...)
	}
	if opt.Tip != "" {
		lines = append(lines, "", current.Muted.Render(opt.Tip))
	}
	return Panel(lines)
}

// CategoryLines lists the category set, marking the active filter.
func CategoryLines(labels []string, active string) []string {
	if len(labels) == 0 {
		return []string{current.Muted.Render("no categories")}
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == active {
			out = append(out, current.Selected.Render(" "+l+" "))
			continue
		}
		out = append(out, current.Accent.Render("#"+l))
	}
	return out
}
