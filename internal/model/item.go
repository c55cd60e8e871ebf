package model

import (
	"errors"
	"strings"
	"time"
)

// Item is the domain model for a todo entry.
// Field names match the documents stored by the cloud backend.
type Item struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Category    string     `json:"category"`
	Deadline    *Date      `json:"deadline"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

var (
	ErrMissingID          = errors.New("item: missing id")
	ErrEmptyText          = errors.New("item: empty text")
	ErrCompletionMismatch = errors.New("item: completedAt must be set iff completed")
	ErrInvalidDeadline    = errors.New("item: deadline must be YYYY-MM-DD")
)

// Valid reports the first invariant the item violates, if any.
func (it Item) Valid() error {
	if strings.TrimSpace(it.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(it.Text) == "" {
		return ErrEmptyText
	}
	if it.Completed != (it.CompletedAt != nil) {
		return ErrCompletionMismatch
	}
	if it.Deadline != nil && !it.Deadline.Canonical() {
		return ErrInvalidDeadline
	}
	return nil
}

// Normalize fills the defaults legacy documents may lack.
func (it *Item) Normalize(now time.Time) {
	it.Category = strings.TrimSpace(it.Category)
	if it.Deadline != nil && strings.TrimSpace(string(*it.Deadline)) == "" {
		it.Deadline = nil
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if !it.Completed {
		it.CompletedAt = nil
	} else if it.CompletedAt == nil {
		t := now
		it.CompletedAt = &t
	}
}

// SetCompleted flips completion and keeps CompletedAt consistent with it.
func (it *Item) SetCompleted(done bool, now time.Time) {
	it.Completed = done
	if done {
		t := now
		it.CompletedAt = &t
		return
	}
	it.CompletedAt = nil
}

// Clone returns a deep copy; pointer fields are not shared.
func (it Item) Clone() Item {
	out := it
	if it.Deadline != nil {
		d := *it.Deadline
		out.Deadline = &d
	}
	if it.CompletedAt != nil {
		t := *it.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}
