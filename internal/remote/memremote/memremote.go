// Package memremote is the in-memory backend: the first version of the app,
// where nothing outlives the process. It is also the fake every core test
// drives, so it can inject write failures.
package memremote

import (
	"context"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

// FaultFunc decides whether a call should fail. op is one of the remote.Op*
// names; id is the item id, empty for category and batch calls.
type FaultFunc func(op, id string) error

type Option func(*Backend)

// WithFaults installs a fault injector consulted before every write.
func WithFaults(f FaultFunc) Option {
	return func(b *Backend) { b.faults = f }
}

// Backend holds every user's data.
type Backend struct {
	mu     sync.Mutex
	users  map[string]*userData
	faults FaultFunc
}

type userData struct {
	mu         sync.Mutex
	items      []model.Item
	categories []string
	hub        *remote.Hub
}

func New(opts ...Option) *Backend {
	b := &Backend{users: map[string]*userData{}}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetFaults swaps the fault injector; nil disables it.
func (b *Backend) SetFaults(f FaultFunc) {
	b.mu.Lock()
	b.faults = f
	b.mu.Unlock()
}

// Collection returns uid's collection, creating it on first use.
func (b *Backend) Collection(uid string) *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[uid]
	if !ok {
		u = &userData{hub: remote.NewHub()}
		b.users[uid] = u
	}
	return &Collection{b: b, u: u}
}

func (b *Backend) fault(op, id string) error {
	b.mu.Lock()
	f := b.faults
	b.mu.Unlock()
	if f == nil {
		return nil
	}
	return f(op, id)
}

// Collection implements remote.Collection for one user.
type Collection struct {
	b *Backend
	u *userData
}

var _ remote.Collection = (*Collection)(nil)
var _ remote.BatchWriter = (*Collection)(nil)

func (c *Collection) ReadAll(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, &remote.ReadError{Op: remote.OpRead, Err: err}
	}
	if err := c.b.fault(remote.OpRead, ""); err != nil {
		return nil, &remote.ReadError{Op: remote.OpRead, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	return model.CloneItems(c.u.items), nil
}

func (c *Collection) WriteOne(ctx context.Context, it model.Item) error {
	if err := c.b.fault(remote.OpWrite, it.ID); err != nil {
		return &remote.WriteError{Op: remote.OpWrite, ID: it.ID, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	c.u.upsert(it)
	c.u.hub.PublishItems(c.u.items)
	return nil
}

func (c *Collection) UpdateFields(ctx context.Context, id string, p remote.Patch) error {
	if err := c.b.fault(remote.OpUpdate, id); err != nil {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	i := c.u.indexOf(id)
	if i < 0 {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: remote.ErrNotFound}
	}
	p.Apply(&c.u.items[i])
	c.u.hub.PublishItems(c.u.items)
	return nil
}

// DeleteOne succeeds when the item is already gone.
func (c *Collection) DeleteOne(ctx context.Context, id string) error {
	if err := c.b.fault(remote.OpDelete, id); err != nil {
		return &remote.WriteError{Op: remote.OpDelete, ID: id, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	if i := c.u.indexOf(id); i >= 0 {
		c.u.items = append(c.u.items[:i:i], c.u.items[i+1:]...)
	}
	c.u.hub.PublishItems(c.u.items)
	return nil
}

func (c *Collection) Subscribe(ctx context.Context, h remote.ItemsHandler) (remote.Unsubscribe, error) {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	return c.u.hub.SubscribeItems(c.u.items, h), nil
}

func (c *Collection) ReadCategories(ctx context.Context) ([]string, error) {
	if err := c.b.fault(remote.OpReadCategories, ""); err != nil {
		return nil, &remote.ReadError{Op: remote.OpReadCategories, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	return append([]string(nil), c.u.categories...), nil
}

func (c *Collection) WriteCategories(ctx context.Context, labels []string) error {
	if err := c.b.fault(remote.OpWriteCategories, ""); err != nil {
		return &remote.WriteError{Op: remote.OpWriteCategories, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	c.u.categories = append([]string(nil), labels...)
	c.u.hub.PublishCategories(c.u.categories)
	return nil
}

func (c *Collection) SubscribeCategories(ctx context.Context, h remote.CategoriesHandler) (remote.Unsubscribe, error) {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	return c.u.hub.SubscribeCategories(c.u.categories, h), nil
}

// WriteBatch applies all items and the category list, publishing once.
func (c *Collection) WriteBatch(ctx context.Context, items []model.Item, labels []string) error {
	if err := c.b.fault(remote.OpBatch, ""); err != nil {
		return &remote.WriteError{Op: remote.OpBatch, Err: err}
	}
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	for _, it := range items {
		c.u.upsert(it)
	}
	c.u.hub.PublishItems(c.u.items)
	if len(labels) > 0 {
		c.u.categories = append([]string(nil), labels...)
		c.u.hub.PublishCategories(c.u.categories)
	}
	return nil
}

// Subscribers reports live item and category subscriptions.
func (c *Collection) Subscribers() (items, categories int) {
	return c.u.hub.Counts()
}

func (u *userData) upsert(it model.Item) {
	if i := u.indexOf(it.ID); i >= 0 {
		u.items[i] = it.Clone()
		return
	}
	u.items = append(u.items, it.Clone())
}

func (u *userData) indexOf(id string) int {
	for i := range u.items {
		if u.items[i].ID == id {
			return i
		}
	}
	return -1
}
