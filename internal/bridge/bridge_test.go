package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/itemstore"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/remote"
	"github.com/Makepad-fr/tada/internal/remote/memremote"
)

type counter struct {
	mu sync.Mutex
	n  map[optimistic.View]int
}

func (c *counter) render(v optimistic.View) {
	c.mu.Lock()
	if c.n == nil {
		c.n = map[optimistic.View]int{}
	}
	c.n[v]++
	c.mu.Unlock()
}

func (c *counter) get(v optimistic.View) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[v]
}

func item(id, text string) model.Item {
	return model.Item{ID: id, Text: text, CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
}

func TestBridge_SnapshotReplacesStoreAndRendersOnce(t *testing.T) {
	ctx := context.Background()
	backend := memremote.New()
	device := backend.Collection("u1")
	require.NoError(t, device.WriteOne(ctx, item("a", "from before")))

	store := itemstore.New()
	store.Append(item("local", "stale local item"))
	renders := &counter{}
	b := New(store, backend.Collection("u1"), renders.render, zerolog.Nop())
	require.NoError(t, b.Start(ctx))
	defer b.Stop()

	assert.Equal(t, []model.Item{item("a", "from before")}, store.Items(), "first snapshot replaces the store")
	assert.Equal(t, 1, renders.get(optimistic.ViewItems))
	assert.Equal(t, 1, renders.get(optimistic.ViewCategories))

	require.NoError(t, device.WriteOne(ctx, item("b", "pushed")))
	want, err := device.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, store.Items())
	assert.Equal(t, 2, renders.get(optimistic.ViewItems), "exactly one render per push")

	require.NoError(t, device.WriteCategories(ctx, []string{"work", "work", "home"}))
	assert.Equal(t, model.Categories{"work", "home"}, store.Categories())
	assert.Equal(t, 2, renders.get(optimistic.ViewCategories))
}

func TestBridge_StopAndRestartKeepOneSubscription(t *testing.T) {
	ctx := context.Background()
	backend := memremote.New()
	coll := backend.Collection("u1")
	b := New(itemstore.New(), coll, nil, zerolog.Nop())

	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Start(ctx))
	items, labels := coll.Subscribers()
	assert.Equal(t, 1, items)
	assert.Equal(t, 1, labels)
	assert.True(t, b.Active())

	b.Stop()
	b.Stop()
	items, labels = coll.Subscribers()
	assert.Zero(t, items)
	assert.Zero(t, labels)
	assert.False(t, b.Active())
}

func TestBridge_StoppedDeliveriesIgnored(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCollection{}
	store := itemstore.New()
	renders := &counter{}
	b := New(store, fake, renders.render, zerolog.Nop())
	require.NoError(t, b.Start(ctx))
	stale := fake.items

	b.Stop()
	stale([]model.Item{item("x", "late")}, nil)
	assert.Zero(t, store.Len())
	assert.Zero(t, renders.get(optimistic.ViewItems))
}

func TestBridge_NoDeliveryLandsAfterStopAndClear(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		fake := &fakeCollection{}
		store := itemstore.New()
		b := New(store, fake, nil, zerolog.Nop())
		require.NoError(t, b.Start(ctx))
		deliver := fake.items

		started := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			close(started)
			deliver([]model.Item{item("x", "pushed")}, nil)
		}()
		<-started
		b.Stop()
		store.Clear()
		<-done

		require.Zero(t, store.Len(), "iteration %d: a delivery landed after sign-out", i)
	}
}

func TestBridge_SnapshotErrorLeavesStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCollection{}
	store := itemstore.New()
	store.Append(item("keep", "keep"))
	store.AddCategory("work")
	renders := &counter{}
	b := New(store, fake, renders.render, zerolog.Nop())
	require.NoError(t, b.Start(ctx))
	defer b.Stop()

	readErr := &remote.ReadError{Op: remote.OpSubscribe, Err: errors.New("permission denied")}
	fake.items(nil, readErr)
	fake.labels(nil, readErr)

	assert.Len(t, store.Items(), 1)
	assert.Equal(t, model.Categories{"work"}, store.Categories())
	assert.Zero(t, renders.get(optimistic.ViewItems))
	assert.Zero(t, renders.get(optimistic.ViewCategories))
}

func TestBridge_StartFailureReleasesItems(t *testing.T) {
	fake := &fakeCollection{failCategories: true}
	b := New(itemstore.New(), fake, nil, zerolog.Nop())
	require.Error(t, b.Start(context.Background()))
	assert.Equal(t, 1, fake.released)
	assert.False(t, b.Active())
}

// fakeCollection captures handlers instead of delivering an initial snapshot.
type fakeCollection struct {
	remote.Collection
	items          remote.ItemsHandler
	labels         remote.CategoriesHandler
	failCategories bool
	released       int
}

func (f *fakeCollection) Subscribe(ctx context.Context, h remote.ItemsHandler) (remote.Unsubscribe, error) {
	f.items = h
	return func() { f.released++ }, nil
}

func (f *fakeCollection) SubscribeCategories(ctx context.Context, h remote.CategoriesHandler) (remote.Unsubscribe, error) {
	if f.failCategories {
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: errors.New("boom")}
	}
	f.labels = h
	return func() { f.released++ }, nil
}
