package optimistic

import (
	"github.com/Makepad-fr/tada/internal/itemstore"
	"github.com/Makepad-fr/tada/internal/model"
)

// Kind names a mutation.
type Kind string

const (
	KindCreate           Kind = "create"
	KindToggle           Kind = "toggle"
	KindRemove           Kind = "remove"
	KindSetDeadline      Kind = "set_deadline"
	KindRegisterCategory Kind = "register_category"
	KindRemoveCategory   Kind = "remove_category"
)

// IsCategory reports whether k writes the category document rather than an item.
func (k Kind) IsCategory() bool {
	return k == KindRegisterCategory || k == KindRemoveCategory
}

// Mutation records what an optimistic change did, enough to undo it.
// Before holds the item as it was prior to the change (zero for create and
// the category kinds).
type Mutation struct {
	Kind     Kind
	ItemID   string
	Before   model.Item
	Category string
}

// Compensation undoes m in s after its remote write failed. It reports the
// view that changed, and false when there was nothing left to undo.
type Compensation func(s *itemstore.Store, m Mutation) (View, bool)

// compensations holds one undo per mutation kind. Every entry matches items
// by id, never by position.
var compensations = map[Kind]Compensation{
	KindCreate: func(s *itemstore.Store, m Mutation) (View, bool) {
		_, ok := s.Remove(m.ItemID)
		return ViewItems, ok
	},
	KindToggle: func(s *itemstore.Store, m Mutation) (View, bool) {
		before := m.Before.Clone()
		_, ok := s.Update(m.ItemID, func(it *model.Item) {
			it.Completed = before.Completed
			it.CompletedAt = before.CompletedAt
		})
		return ViewItems, ok
	},
	// Re-inserts at the end; the original position is not kept.
	KindRemove: func(s *itemstore.Store, m Mutation) (View, bool) {
		return ViewItems, s.Append(m.Before)
	},
	KindSetDeadline: func(s *itemstore.Store, m Mutation) (View, bool) {
		before := m.Before.Clone()
		_, ok := s.Update(m.ItemID, func(it *model.Item) {
			it.Deadline = before.Deadline
		})
		return ViewItems, ok
	},
	KindRegisterCategory: func(s *itemstore.Store, m Mutation) (View, bool) {
		return ViewCategories, s.RemoveCategory(m.Category)
	},
	KindRemoveCategory: func(s *itemstore.Store, m Mutation) (View, bool) {
		return ViewCategories, s.AddCategory(m.Category)
	},
}

// Compensate runs the compensation registered for m.Kind.
func Compensate(s *itemstore.Store, m Mutation) (View, bool) {
	c, ok := compensations[m.Kind]
	if !ok {
		return ViewItems, false
	}
	return c(s, m)
}
