package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", current.Success.Render(bar), pct)
}

// Panel frames lines in the current theme's border.
func Panel(lines []string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Header is the summary line on top of every list.
func Header(done, pending int) string {
	total := done + pending
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		current.Title.Render("Todos"),
		current.Success.Render(current.SymDone), done,
		current.Pending.Render(current.SymUnchecked), pending,
		current.Muted.Render("Total"), total)
}
