// Package query derives read-only views from the item store. Nothing here
// mutates its inputs.
package query

import (
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// PendingList returns incomplete items whose category equals filter, or all
// incomplete items when filter is empty, in the order given.
func PendingList(items []model.Item, filter string) []model.Item {
	out := []model.Item{}
	for _, it := range items {
		if it.Completed {
			continue
		}
		if filter != "" && it.Category != filter {
			continue
		}
		out = append(out, it)
	}
	return out
}

// IsOverdue reports whether it has a deadline strictly before today and is
// still open.
func IsOverdue(it model.Item, today model.Date) bool {
	return it.Deadline != nil && !it.Completed && it.Deadline.Before(today)
}

// Stats counts done and pending items.
func Stats(items []model.Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Day is everything that happened, or is due, on one date.
type Day struct {
	Date      model.Date
	Deadline  []model.Item
	Completed []model.Item
}

// DayProjection collects items due on d (completed or not) and items completed
// on d, where a completion timestamp is read as a date in loc.
func DayProjection(items []model.Item, d model.Date, loc *time.Location) Day {
	day := Day{Date: d, Deadline: []model.Item{}, Completed: []model.Item{}}
	for _, it := range items {
		if it.Deadline != nil && *it.Deadline == d {
			day.Deadline = append(day.Deadline, it)
		}
		if it.Completed && it.CompletedAt != nil && model.DateOf(*it.CompletedAt, loc) == d {
			day.Completed = append(day.Completed, it)
		}
	}
	return day
}

func (d Day) Empty() bool { return len(d.Deadline) == 0 && len(d.Completed) == 0 }

// PreviewKind tells a deadline preview from a completion preview.
type PreviewKind string

const (
	PreviewDeadline  PreviewKind = "deadline"
	PreviewCompleted PreviewKind = "completed"
)

// DefaultPreviewCap is how many previews fit in a calendar cell.
const DefaultPreviewCap = 2

type Preview struct {
	Kind PreviewKind
	Text string
}

// Previews lists deadlines first, then completions, capped at max; remaining
// is how many were left out.
func (d Day) Previews(max int) (shown []Preview, remaining int) {
	all := make([]Preview, 0, len(d.Deadline)+len(d.Completed))
	for _, it := range d.Deadline {
		all = append(all, Preview{Kind: PreviewDeadline, Text: it.Text})
	}
	for _, it := range d.Completed {
		all = append(all, Preview{Kind: PreviewCompleted, Text: it.Text})
	}
	if max < 0 {
		max = 0
	}
	if len(all) <= max {
		return all, 0
	}
	return all[:max], len(all) - max
}

// Section names a group in the day detail panel.
type Section string

const (
	SectionDeadline  Section = "deadline"
	SectionCompleted Section = "completed"
)

// Entry is one row of the day detail panel.
type Entry struct {
	Section Section
	Item    model.Item
	Done    bool
	Overdue bool
}

// Entries returns the detail rows: the deadline section, then the completed
// section. Open deadline rows past today are flagged Overdue.
func (d Day) Entries(today model.Date) []Entry {
	out := make([]Entry, 0, len(d.Deadline)+len(d.Completed))
	for _, it := range d.Deadline {
		out = append(out, Entry{
			Section: SectionDeadline,
			Item:    it,
			Done:    it.Completed,
			Overdue: IsOverdue(it, today),
		})
	}
	for _, it := range d.Completed {
		out = append(out, Entry{Section: SectionCompleted, Item: it, Done: true})
	}
	return out
}
