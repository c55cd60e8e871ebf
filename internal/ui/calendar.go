package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
)

// CellWidth is the printed width of one calendar cell, borders excluded.
const CellWidth = 14

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Calendar holds what a month grid needs.
type Calendar struct {
	Year     int
	Month    time.Month
	Items    []model.Item
	Today    model.Date
	Selected *model.Date
	Loc      *time.Location
	// Cap limits previews per cell; 0 means query.DefaultPreviewCap.
	Cap int
}

// Render draws the month as a table of weeks. Each in-month cell lists up to
// Cap previews and a "+N" line when more items fall on that day.
func (c Calendar) Render() string {
	t := current
	limit := c.Cap
	if limit <= 0 {
		limit = query.DefaultPreviewCap
	}
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	bodyLines := limit + 1

	hsep := strings.Repeat(t.Border.Top, CellWidth)
	rule := t.Border.TopLeft + strings.Repeat(hsep+t.Border.Top, 6) + hsep + t.Border.TopRight
	mid := t.Border.Left + strings.Repeat(hsep+t.Border.Top, 6) + hsep + t.Border.Right
	bottom := t.Border.BottomLeft + strings.Repeat(hsep+t.Border.Bottom, 6) + hsep + t.Border.BottomRight

	var b strings.Builder
	title := fmt.Sprintf("%s %d", c.Month, c.Year)
	b.WriteString(t.Title.Render(title) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(row(t, func(i int) string { return t.Muted.Render(Fit(weekdays[i], CellWidth)) }) + "\n")

	cells := query.Month(c.Year, c.Month)
	for w := 0; w < len(cells)/7; w++ {
		week := cells[w*7 : w*7+7]
		days := make([]query.Day, 7)
		for i, cell := range week {
			if cell.InMonth {
				days[i] = query.DayProjection(c.Items, cell.Date, loc)
			}
		}
		b.WriteString(mid + "\n")
		b.WriteString(row(t, func(i int) string { return c.dayNumber(week[i]) }) + "\n")
		for ln := 0; ln < bodyLines; ln++ {
			b.WriteString(row(t, func(i int) string {
				if !week[i].InMonth {
					return Fit("", CellWidth)
				}
				return previewLine(days[i], limit, ln)
			}) + "\n")
		}
	}
	b.WriteString(bottom)
	return b.String()
}

func row(t Theme, cell func(i int) string) string {
	parts := make([]string, 7)
	for i := range parts {
		parts[i] = cell(i)
	}
	return t.Border.Left + strings.Join(parts, t.Border.Left) + t.Border.Right
}

func (c Calendar) dayNumber(cell query.Cell) string {
	t := current
	label := Fit(fmt.Sprintf("%2d", cell.Day), CellWidth)
	switch {
	case !cell.InMonth:
		return t.Muted.Render(label)
	case c.Selected != nil && *c.Selected == cell.Date:
		return t.Selected.Render(label)
	case cell.Date == c.Today:
		return t.Accent.Bold(true).Render(label)
	}
	return label
}

// previewLine is line ln of a cell body: a preview, the "+N" overflow line,
// or blank.
func previewLine(day query.Day, limit, ln int) string {
	t := current
	shown, remaining := day.Previews(limit)
	if ln < len(shown) {
		p := shown[ln]
		if p.Kind == query.PreviewCompleted {
			return t.Success.Render(Fit(t.SymDone+" "+p.Text, CellWidth))
		}
		return t.Pending.Render(Fit(t.SymUnchecked+" "+p.Text, CellWidth))
	}
	if ln == len(shown) && remaining > 0 {
		return t.Muted.Render(Fit(fmt.Sprintf("+%d", remaining), CellWidth))
	}
	return Fit("", CellWidth)
}
