// Package itemstore holds the live, in-memory collection of items and the
// category set for one signed-in session. It is the single source of truth
// for rendering; remote adapters and the mutation engine only ever write to it
// through the methods below.
package itemstore

import (
	"strings"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

// Store is safe for concurrent use. Methods that capture and mutate do so
// under one lock, so callers never see a state between the two.
type Store struct {
	mu         sync.RWMutex
	items      []model.Item
	categories model.Categories
}

func New() *Store {
	return &Store{}
}

// Items returns a copy of the collection in insertion order.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneItems(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Find(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return model.Item{}, false
}

// Append adds it at the end. It reports false, and changes nothing, when an
// item with the same id is already present.
func (s *Store) Append(it model.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(it.ID) >= 0 {
		return false
	}
	s.items = append(s.items, it.Clone())
	return true
}

// Remove deletes the item with the given id and returns what was removed.
func (s *Store) Remove(id string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return removed, true
}

// Update applies fn to the item with the given id and returns the item as it
// was before fn ran.
func (s *Store) Update(id string, fn func(*model.Item)) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Item{}, false
	}
	before := s.items[i].Clone()
	fn(&s.items[i])
	return before, true
}

// ReplaceItems swaps the whole collection for a snapshot.
func (s *Store) ReplaceItems(items []model.Item) {
	cp := model.CloneItems(items)
	s.mu.Lock()
	s.items = cp
	s.mu.Unlock()
}

func (s *Store) Categories() model.Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.Clone()
}

func (s *Store) HasCategory(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.Contains(name)
}

// AddCategory appends name unless it is blank or already present.
func (s *Store) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" || s.categories.Contains(name) {
		return false
	}
	s.categories = s.categories.With(name)
	return true
}

func (s *Store) RemoveCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.categories.Contains(name) {
		return false
	}
	s.categories = s.categories.Without(name)
	return true
}

// ReplaceCategories swaps the category set for a snapshot, dropping duplicates.
func (s *Store) ReplaceCategories(labels []string) {
	c := model.NewCategories(labels)
	s.mu.Lock()
	s.categories = c
	s.mu.Unlock()
}

// Clear empties the store, as on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.categories = nil
	s.mu.Unlock()
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
