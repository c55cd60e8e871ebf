// Package remote defines the per-user persistent collection the core syncs
// against, plus the pieces every adapter shares. Adapters live in the
// sub-packages: memremote (in-memory), jsonfile and sqlitestore (local),
// httpremote (cloud).
package remote

import (
	"context"

	"github.com/Makepad-fr/tada/internal/model"
)

// ItemsHandler receives a full snapshot of the item collection, or an error
// when the subscription could not deliver one.
type ItemsHandler func(items []model.Item, err error)

// CategoriesHandler receives the full category list, or an error.
type CategoriesHandler func(labels []string, err error)

// Unsubscribe releases a subscription. It is safe to call more than once.
type Unsubscribe func()

// Collection is one user's item collection plus their single category document.
//
// Subscribe handlers get the current snapshot right away and then every
// later snapshot in order. Handlers must not call back into the Collection.
type Collection interface {
	ReadAll(ctx context.Context) ([]model.Item, error)
	WriteOne(ctx context.Context, it model.Item) error
	UpdateFields(ctx context.Context, id string, p Patch) error
	DeleteOne(ctx context.Context, id string) error
	Subscribe(ctx context.Context, h ItemsHandler) (Unsubscribe, error)

	ReadCategories(ctx context.Context) ([]string, error)
	WriteCategories(ctx context.Context, labels []string) error
	SubscribeCategories(ctx context.Context, h CategoriesHandler) (Unsubscribe, error)
}

// BatchWriter is implemented by adapters that can write many items and the
// category list in one shot.
type BatchWriter interface {
	WriteBatch(ctx context.Context, items []model.Item, labels []string) error
}

// WriteBatch uses the adapter's BatchWriter when it has one and falls back to
// one write per item otherwise.
func WriteBatch(ctx context.Context, c Collection, items []model.Item, labels []string) error {
	if bw, ok := c.(BatchWriter); ok {
		return bw.WriteBatch(ctx, items, labels)
	}
	for _, it := range items {
		if err := c.WriteOne(ctx, it); err != nil {
			return err
		}
	}
	if len(labels) > 0 {
		return c.WriteCategories(ctx, labels)
	}
	return nil
}
