// Package bridge keeps the item store in step with the remote collection by
// replacing it wholesale with every pushed snapshot.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/itemstore"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/remote"
)

// Bridge owns at most one item subscription and one category subscription.
type Bridge struct {
	store  *itemstore.Store
	remote remote.Collection
	render optimistic.RenderFunc
	log    zerolog.Logger

	mu          sync.Mutex
	unsubItems  remote.Unsubscribe
	unsubLabels remote.Unsubscribe
	gen         atomic.Uint64

	// deliver is held across the generation check and the store write, so
	// once stopLocked has bumped gen no older delivery can still land.
	deliver sync.Mutex
}

func New(store *itemstore.Store, coll remote.Collection, render optimistic.RenderFunc, logger zerolog.Logger) *Bridge {
	if render == nil {
		render = func(optimistic.View) {}
	}
	return &Bridge{
		store:  store,
		remote: coll,
		render: render,
		log:    logger.With().Str("component", "bridge").Logger(),
	}
}

// Start tears down any running subscriptions and opens new ones. If the
// category subscription cannot be opened the item one is released again.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	gen := b.gen.Load()

	unsubItems, err := b.remote.Subscribe(ctx, func(items []model.Item, err error) {
		if err != nil {
			if b.current(gen) {
				b.log.Warn().Err(err).Msg("item snapshot failed; keeping local state")
			}
			return
		}
		if b.apply(gen, func() { b.store.ReplaceItems(items) }) {
			b.render(optimistic.ViewItems)
		}
	})
	if err != nil {
		b.log.Error().Err(err).Msg("subscribe items")
		return err
	}

	unsubLabels, err := b.remote.SubscribeCategories(ctx, func(labels []string, err error) {
		if err != nil {
			if b.current(gen) {
				b.log.Warn().Err(err).Msg("category snapshot failed; keeping local state")
			}
			return
		}
		if b.apply(gen, func() { b.store.ReplaceCategories(labels) }) {
			b.render(optimistic.ViewCategories)
		}
	})
	if err != nil {
		unsubItems()
		b.log.Error().Err(err).Msg("subscribe categories")
		return err
	}

	b.unsubItems, b.unsubLabels = unsubItems, unsubLabels
	b.log.Debug().Msg("subscriptions started")
	return nil
}

// Stop releases both subscriptions. It is safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

// Active reports whether subscriptions are open.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unsubItems != nil
}

func (b *Bridge) stopLocked() {
	b.deliver.Lock()
	b.gen.Add(1)
	b.deliver.Unlock()
	if b.unsubItems != nil {
		b.unsubItems()
		b.unsubItems = nil
	}
	if b.unsubLabels != nil {
		b.unsubLabels()
		b.unsubLabels = nil
	}
}

// current drops deliveries from a subscription that has since been replaced.
// The first snapshot arrives while Start holds b.mu, so this must not take it.
func (b *Bridge) current(gen uint64) bool {
	return b.gen.Load() == gen
}

// apply runs write if gen is still current, atomically with respect to Stop.
// The render that follows stays outside the lock.
func (b *Bridge) apply(gen uint64, write func()) bool {
	b.deliver.Lock()
	defer b.deliver.Unlock()
	if !b.current(gen) {
		return false
	}
	write()
	return true
}
