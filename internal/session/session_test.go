package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/remote"
	"github.com/Makepad-fr/tada/internal/remote/jsonfile"
	"github.com/Makepad-fr/tada/internal/remote/memremote"
)

func TestSignIn_LoadsAndSubscribes(t *testing.T) {
	ctx := context.Background()
	backend := memremote.New()
	coll := backend.Collection("u1")
	require.NoError(t, coll.WriteOne(ctx, model.Item{ID: "a", Text: "existing"}))
	require.NoError(t, coll.WriteCategories(ctx, []string{"work"}))

	var renders atomic.Int32
	s, err := SignIn(ctx, User{ID: "u1", Name: "Ada"}, coll,
		WithLogger(zerolog.Nop()),
		WithRender(func(optimistic.View) { renders.Add(1) }))
	require.NoError(t, err)
	defer s.SignOut()

	assert.Equal(t, 1, s.Store.Len())
	assert.Equal(t, model.Categories{"work"}, s.Store.Categories())
	assert.True(t, s.Bridge.Active())
	assert.Positive(t, renders.Load())

	other := backend.Collection("u1")
	require.NoError(t, other.WriteOne(ctx, model.Item{ID: "b", Text: "from another device"}))
	assert.Equal(t, 2, s.Store.Len(), "pushes reach the store")

	it, err := s.Engine.Create("new", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Engine.AwaitSettled(ctx))
	_, ok := s.Store.Find(it.ID)
	assert.True(t, ok)
}

func TestSignIn_RequiresUser(t *testing.T) {
	_, err := SignIn(context.Background(), User{}, memremote.New().Collection("x"))
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestSignIn_ReadFailureLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	backend := memremote.New()
	coll := backend.Collection("u1")
	require.NoError(t, coll.WriteOne(ctx, model.Item{ID: "a", Text: "existing"}))
	backend.SetFaults(func(op, _ string) error {
		if op == remote.OpRead {
			return errors.New("permission denied")
		}
		return nil
	})

	s, err := SignIn(ctx, User{ID: "u1"}, coll, WithoutSubscriptions())
	require.NoError(t, err)
	assert.Zero(t, s.Store.Len())
	assert.False(t, s.Bridge.Active())
	var rerr *remote.ReadError
	assert.ErrorAs(t, s.LoadErr(), &rerr)

	backend.SetFaults(nil)
	ok, err := SignIn(ctx, User{ID: "u1"}, coll, WithoutSubscriptions())
	require.NoError(t, err)
	assert.NoError(t, ok.LoadErr())
}

func TestSignIn_ImportsLegacyData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todos.json"),
		[]byte(`[{"id":"old","text":"from disk","completed":false}]`), 0o644))
	coll := memremote.New().Collection("u1")

	s, err := SignIn(ctx, User{ID: "u1"}, coll, WithLegacyImport(jsonfile.New(dir)))
	require.NoError(t, err)
	defer s.SignOut()

	got, ok := s.Store.Find("old")
	require.True(t, ok)
	assert.Equal(t, "from disk", got.Text)
	_, err = os.Stat(filepath.Join(dir, "todos.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSignOut_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	coll := memremote.New().Collection("u1")
	require.NoError(t, coll.WriteOne(ctx, model.Item{ID: "a", Text: "x", Category: "work"}))
	require.NoError(t, coll.WriteCategories(ctx, []string{"work"}))

	s, err := SignIn(ctx, User{ID: "u1"}, coll, WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	s.Selection.SetFilter("work")
	s.Selection.NextMonth()

	s.SignOut()
	assert.Zero(t, s.Store.Len())
	assert.Empty(t, s.Store.Categories())
	assert.False(t, s.Bridge.Active())
	st := s.Selection.State()
	assert.Empty(t, st.Filter)
	assert.Equal(t, time.October, st.Month)
	i, c := coll.Subscribers()
	assert.Zero(t, i)
	assert.Zero(t, c)

	require.NoError(t, coll.WriteOne(ctx, model.Item{ID: "late", Text: "after sign-out"}))
	assert.Zero(t, s.Store.Len(), "no pushes after sign-out")
}

func TestUser_Label(t *testing.T) {
	assert.Equal(t, "Ada", User{ID: "1", Name: "Ada", Email: "a@x"}.Label())
	assert.Equal(t, "a@x", User{ID: "1", Email: "a@x"}.Label())
	assert.Equal(t, "1", User{ID: "1"}.Label())
}

func TestSignOut_FailedWritesDoNotRefillStore(t *testing.T) {
	ctx := context.Background()
	backend := memremote.New()
	coll := backend.Collection("u1")
	require.NoError(t, coll.WriteOne(ctx, model.Item{ID: "a", Text: "milk"}))
	require.NoError(t, coll.WriteCategories(ctx, []string{"work"}))

	release := make(chan struct{})
	backend.SetFaults(func(op, _ string) error {
		if op == remote.OpDelete || op == remote.OpWriteCategories {
			<-release
			return errors.New("offline")
		}
		return nil
	})

	s, err := SignIn(ctx, User{ID: "u1"}, coll, WithoutSubscriptions(),
		WithEngineOptions(optimistic.WithCategoryRollback()))
	require.NoError(t, err)
	s.Engine.Remove("a")
	s.Engine.RemoveCategory("work")
	require.Zero(t, s.Store.Len())

	s.SignOut()
	close(release)
	require.NoError(t, s.Engine.AwaitSettled(ctx))

	assert.Zero(t, s.Store.Len(), "a failed delete must not restore the item")
	assert.Empty(t, s.Store.Categories())

	items, err := coll.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1, "the remote kept the item the delete failed on")

	_, err = s.Engine.Create("too late", "", nil)
	assert.ErrorIs(t, err, optimistic.ErrDetached)
	assert.Zero(t, s.Store.Len())
}
