package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending, Overdue lipgloss.Style
	Selected, Done                                         lipgloss.Style

	Border                   lipgloss.Border
	BorderColor              lipgloss.Color
	BoxUnchecked, BoxChecked string
	SymDone, SymUnchecked    string
	SymCross, SymDue         string

	// Markdown is the glamour standard style for day details.
	Markdown string
}

var current = classic()

func classic() Theme {
	return Theme{
		Name:         "classic",
		Title:        lipgloss.NewStyle().Bold(true),
		Muted:        lipgloss.NewStyle().Faint(true),
		Accent:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Pending:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Overdue:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Selected:     lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:         lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Border:       lipgloss.RoundedBorder(),
		BorderColor:  lipgloss.Color("8"),
		BoxUnchecked: "☐", BoxChecked: "☑",
		SymDone: "✔", SymUnchecked: "•",
		SymCross: "✖", SymDue: "⏰",
		Markdown: "dark",
	}
}

func neon() Theme {
	t := classic()
	t.Name = "neon"
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	t.Pending = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	t.BorderColor = lipgloss.Color("13")
	t.BoxUnchecked, t.BoxChecked = "◻", "◼"
	t.Markdown = "dracula"
	return t
}

func mono() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:  "mono",
		Title: plain, Muted: plain, Accent: plain, Success: plain,
		Error: plain, Pending: plain, Overdue: plain,
		Selected: lipgloss.NewStyle().Reverse(true),
		Done:     plain,
		Border: lipgloss.Border{
			Top: "-", Bottom: "-", Left: "|", Right: "|",
			TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
		},
		BoxUnchecked: "[ ]", BoxChecked: "[x]",
		SymDone: "x", SymUnchecked: "-",
		SymCross: "x", SymDue: "!",
		Markdown: "ascii",
	}
}

// SetTheme switches the palette. Unknown names fall back to classic. The
// mono theme also drops colors entirely.
func SetTheme(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		current = neon()
	case "mono":
		current = mono()
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		current = classic()
	}
}

// Expose what renderers need
func Current() Theme { return current }

// SetColorProfile picks the lipgloss color profile. NO_COLOR (or noColor)
// wins; otherwise the terminal's own capabilities are used.
func SetColorProfile(noColor bool) {
	if noColor || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}
