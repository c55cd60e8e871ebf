package ui

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
)

var (
	mdMu sync.Mutex
	// Renderers keyed by style and wrap width. Auto style probes the
	// terminal, so a fixed standard style is used instead.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// DayMarkdown is the day detail panel as markdown: a deadline section, then
// a completed section.
func DayMarkdown(day query.Day, today model.Date, loc *time.Location) string {
	var b strings.Builder
	if t, err := day.Date.Time(loc); err == nil {
		fmt.Fprintf(&b, "# %s\n\n", t.Format("Monday, January 2, 2006"))
	} else {
		fmt.Fprintf(&b, "# %s\n\n", day.Date)
	}
	if day.Empty() {
		b.WriteString("_Nothing due or completed on this day._\n")
		return b.String()
	}

	var deadline, completed []query.Entry
	for _, e := range day.Entries(today) {
		if e.Section == query.SectionDeadline {
			deadline = append(deadline, e)
		} else {
			completed = append(completed, e)
		}
	}
	section(&b, "Deadline", deadline)
	section(&b, "Completed", completed)
	return b.String()
}

func section(b *strings.Builder, title string, entries []query.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, e := range entries {
		box := "[ ]"
		if e.Done {
			box = "[x]"
		}
		fmt.Fprintf(b, "- %s %s", box, escapeMarkdown(e.Item.Text))
		if e.Item.Category != "" {
			fmt.Fprintf(b, " _#%s_", escapeMarkdown(e.Item.Category))
		}
		if e.Overdue {
			b.WriteString(" **overdue**")
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "#", `\#`,
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

// RenderMarkdown renders md for the terminal at width columns. On renderer
// errors the source is returned as is.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	style := current.Markdown
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
