package memremote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

func TestCollection_CRUDAndSnapshots(t *testing.T) {
	ctx := context.Background()
	c := New().Collection("alice")

	var snaps [][]model.Item
	unsub, err := c.Subscribe(ctx, func(items []model.Item, err error) { snaps = append(snaps, items) })
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, c.WriteOne(ctx, model.Item{ID: "a", Text: "A", CreatedAt: time.Now()}))
	require.NoError(t, c.WriteOne(ctx, model.Item{ID: "b", Text: "B", CreatedAt: time.Now()}))
	require.NoError(t, c.UpdateFields(ctx, "a", remote.DeadlinePatch(model.Date("2026-01-02").Ptr())))
	require.NoError(t, c.DeleteOne(ctx, "b"))
	require.NoError(t, c.DeleteOne(ctx, "b"))

	items, err := c.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.Date("2026-01-02"), *items[0].Deadline)

	// initial + 2 writes + update + 2 deletes
	require.Len(t, snaps, 6)
	assert.Empty(t, snaps[0])
	assert.Len(t, snaps[2], 2)

	err = c.UpdateFields(ctx, "missing", remote.DeadlinePatch(nil))
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.True(t, remote.IsWriteFailure(err))
}

func TestCollection_UsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Collection("alice").WriteOne(ctx, model.Item{ID: "a", Text: "A"}))

	items, err := b.Collection("bob").ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = b.Collection("alice").ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCollection_FaultsFailWithoutApplying(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("permission denied")
	b := New(WithFaults(func(op, id string) error {
		if op == remote.OpWrite {
			return boom
		}
		return nil
	}))
	c := b.Collection("alice")

	err := c.WriteOne(ctx, model.Item{ID: "a", Text: "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	items, _ := c.ReadAll(ctx)
	assert.Empty(t, items)

	b.SetFaults(nil)
	require.NoError(t, c.WriteOne(ctx, model.Item{ID: "a", Text: "A"}))
}

func TestCollection_Categories(t *testing.T) {
	ctx := context.Background()
	c := New().Collection("alice")

	var last []string
	unsub, err := c.SubscribeCategories(ctx, func(labels []string, err error) { last = labels })
	require.NoError(t, err)

	require.NoError(t, c.WriteCategories(ctx, []string{"work", "home"}))
	assert.Equal(t, []string{"work", "home"}, last)

	_, cats := c.Subscribers()
	assert.Equal(t, 1, cats)
	unsub()
	_, cats = c.Subscribers()
	assert.Zero(t, cats)

	got, err := c.ReadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "home"}, got)
}

func TestWriteBatch(t *testing.T) {
	ctx := context.Background()
	c := New().Collection("alice")
	items := []model.Item{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}}
	require.NoError(t, remote.WriteBatch(ctx, c, items, []string{"x"}))

	got, _ := c.ReadAll(ctx)
	assert.Len(t, got, 2)
	cats, _ := c.ReadCategories(ctx)
	assert.Equal(t, []string{"x"}, cats)
}
