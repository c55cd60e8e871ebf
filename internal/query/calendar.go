package query

import (
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// Cell is one square of a month grid. Padding cells belong to the previous
// or next month and carry no items.
type Cell struct {
	Date    model.Date
	Day     int
	InMonth bool
}

// Month lays out year/month as full Sunday-first weeks, padded with the tail
// of the previous month and the head of the next.
func Month(year int, month time.Month) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	lead := int(first.Weekday())

	cells := make([]Cell, 0, 42)
	for i := lead; i > 0; i-- {
		d := first.AddDate(0, 0, -i)
		cells = append(cells, Cell{Date: model.DateOf(d, time.UTC), Day: d.Day()})
	}
	for day := 1; day <= daysInMonth; day++ {
		cells = append(cells, Cell{Date: model.NewDate(year, month, day), Day: day, InMonth: true})
	}
	trail := (7 - len(cells)%7) % 7
	last := first.AddDate(0, 1, -1)
	for i := 1; i <= trail; i++ {
		d := last.AddDate(0, 0, i)
		cells = append(cells, Cell{Date: model.DateOf(d, time.UTC), Day: d.Day()})
	}
	return cells
}
