// Package jsonfile is the local-storage backend: two human-readable JSON
// files in a directory. Single user, no cross-process locking; subscriptions
// only see writes made through the same process.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

const (
	todosFileName      = "todos.json"
	categoriesFileName = "categories.json"
)

// Store reads and writes Dir/todos.json and Dir/categories.json.
type Store struct {
	Dir string

	mu  sync.Mutex
	hub *remote.Hub
}

var _ remote.Collection = (*Store)(nil)
var _ remote.BatchWriter = (*Store)(nil)

func New(dir string) *Store {
	return &Store{Dir: dir, hub: remote.NewHub()}
}

func (s *Store) todosPath() string      { return filepath.Join(s.Dir, todosFileName) }
func (s *Store) categoriesPath() string { return filepath.Join(s.Dir, categoriesFileName) }

func (s *Store) ReadAll(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpRead, Err: err}
	}
	return items, nil
}

func (s *Store) WriteOne(ctx context.Context, it model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return &remote.WriteError{Op: remote.OpWrite, ID: it.ID, Err: err}
	}
	items = upsert(items, it)
	if err := s.saveItems(items); err != nil {
		return &remote.WriteError{Op: remote.OpWrite, ID: it.ID, Err: err}
	}
	s.hub.PublishItems(items)
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, id string, p remote.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: err}
	}
	i := indexOf(items, id)
	if i < 0 {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: remote.ErrNotFound}
	}
	p.Apply(&items[i])
	if err := s.saveItems(items); err != nil {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: err}
	}
	s.hub.PublishItems(items)
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return &remote.WriteError{Op: remote.OpDelete, ID: id, Err: err}
	}
	if i := indexOf(items, id); i >= 0 {
		items = append(items[:i], items[i+1:]...)
		if err := s.saveItems(items); err != nil {
			return &remote.WriteError{Op: remote.OpDelete, ID: id, Err: err}
		}
	}
	s.hub.PublishItems(items)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, h remote.ItemsHandler) (remote.Unsubscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: err}
	}
	return s.hub.SubscribeItems(items, h), nil
}

func (s *Store) ReadCategories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels, err := s.loadCategories()
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpReadCategories, Err: err}
	}
	return labels, nil
}

func (s *Store) WriteCategories(ctx context.Context, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.categoriesPath(), labels); err != nil {
		return &remote.WriteError{Op: remote.OpWriteCategories, Err: err}
	}
	s.hub.PublishCategories(labels)
	return nil
}

func (s *Store) SubscribeCategories(ctx context.Context, h remote.CategoriesHandler) (remote.Unsubscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels, err := s.loadCategories()
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: err}
	}
	return s.hub.SubscribeCategories(labels, h), nil
}

func (s *Store) WriteBatch(ctx context.Context, items []model.Item, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.loadItems()
	if err != nil {
		return &remote.WriteError{Op: remote.OpBatch, Err: err}
	}
	for _, it := range items {
		cur = upsert(cur, it)
	}
	if err := s.saveItems(cur); err != nil {
		return &remote.WriteError{Op: remote.OpBatch, Err: err}
	}
	s.hub.PublishItems(cur)
	if len(labels) > 0 {
		if err := writeJSON(s.categoriesPath(), labels); err != nil {
			return &remote.WriteError{Op: remote.OpBatch, Err: err}
		}
		s.hub.PublishCategories(labels)
	}
	return nil
}

// HasData reports whether either file exists with content.
func (s *Store) HasData() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadItems()
	if err != nil {
		return false, err
	}
	labels, err := s.loadCategories()
	if err != nil {
		return false, err
	}
	return len(items) > 0 || len(labels) > 0, nil
}

// Clear removes both files. Missing files are not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range []string{s.todosPath(), s.categoriesPath()} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove: %w", err)
		}
	}
	s.hub.PublishItems(nil)
	s.hub.PublishCategories(nil)
	return nil
}

func (s *Store) loadItems() ([]model.Item, error) {
	var items []model.Item
	if err := readJSON(s.todosPath(), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s *Store) saveItems(items []model.Item) error {
	return writeJSON(s.todosPath(), items)
}

func (s *Store) loadCategories() ([]string, error) {
	var labels []string
	if err := readJSON(s.categoriesPath(), &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// readJSON leaves v untouched when the file does not exist.
func readJSON(p string, v any) error {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("json unmarshal %s: %w", filepath.Base(p), err)
	}
	return nil
}

// writeJSON replaces p atomically via a temp file in the same directory.
func writeJSON(p string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func upsert(items []model.Item, it model.Item) []model.Item {
	if i := indexOf(items, it.ID); i >= 0 {
		items[i] = it
		return items
	}
	return append(items, it)
}

func indexOf(items []model.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
