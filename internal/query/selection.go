package query

import (
	"sync"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// Selection is the ephemeral view state: which category filters the list,
// which category chip is active for new items, and where the calendar is.
// It is never persisted.
type Selection struct {
	mu           sync.RWMutex
	filter       string
	active       string
	year         int
	month        time.Month
	selectedDate *model.Date
}

// NewSelection starts the calendar on now's month.
func NewSelection(now time.Time) *Selection {
	return &Selection{year: now.Year(), month: now.Month()}
}

// SelectionState is a point-in-time copy of a Selection.
type SelectionState struct {
	Filter       string
	Active       string
	Year         int
	Month        time.Month
	SelectedDate *model.Date
}

func (s *Selection) State() SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := SelectionState{Filter: s.filter, Active: s.active, Year: s.year, Month: s.month}
	if s.selectedDate != nil {
		d := *s.selectedDate
		st.SelectedDate = &d
	}
	return st
}

func (s *Selection) SetFilter(category string) {
	s.mu.Lock()
	s.filter = category
	s.mu.Unlock()
}

// SelectCategory toggles the active chip: selecting the active one clears it.
func (s *Selection) SelectCategory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == name {
		s.active = ""
		return
	}
	s.active = name
}

// ClearCategory drops name from the filter and the active chip. It reports
// whether anything changed.
func (s *Selection) ClearCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	if name != "" && s.filter == name {
		s.filter = ""
		changed = true
	}
	if name != "" && s.active == name {
		s.active = ""
		changed = true
	}
	return changed
}

func (s *Selection) PrevMonth() { s.shiftMonth(-1) }
func (s *Selection) NextMonth() { s.shiftMonth(1) }

// SetMonth jumps the calendar and clears the selected date.
func (s *Selection) SetMonth(year int, month time.Month) {
	s.mu.Lock()
	s.year, s.month = year, month
	s.selectedDate = nil
	s.mu.Unlock()
}

func (s *Selection) shiftMonth(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Date(s.year, s.month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	s.year, s.month = t.Year(), t.Month()
	s.selectedDate = nil
}

// ToggleDate selects d, or clears the selection when d is already selected.
func (s *Selection) ToggleDate(d model.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedDate != nil && *s.selectedDate == d {
		s.selectedDate = nil
		return
	}
	s.selectedDate = &d
}

// Reset returns to the empty selection, as on sign-out.
func (s *Selection) Reset(now time.Time) {
	s.mu.Lock()
	s.filter, s.active = "", ""
	s.year, s.month = now.Year(), now.Month()
	s.selectedDate = nil
	s.mu.Unlock()
}
