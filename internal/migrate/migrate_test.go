package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote/jsonfile"
	"github.com/Makepad-fr/tada/internal/remote/memremote"
)

const legacyTodos = `[
  {"id":"1","text":"Buy milk","category":"errands","deadline":"","completed":false},
  {"text":"no id yet","completed":true},
  {"id":"3","text":"   ","completed":false}
]`

func writeLegacy(t *testing.T, dir, todos, categories string) {
	t.Helper()
	if todos != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "todos.json"), []byte(todos), 0o644))
	}
	if categories != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"), []byte(categories), 0o644))
	}
}

func TestImport_WritesBatchAndClears(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacy(t, dir, legacyTodos, `["errands","errands","home"]`)
	src := jsonfile.New(dir)
	dst := memremote.New().Collection("u1")

	res, err := Import(ctx, src, dst, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{Items: 2, Categories: 2}, res)

	items, err := dst.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Nil(t, items[0].Deadline, "empty legacy deadline becomes null")
	assert.NotEmpty(t, items[1].ID)
	assert.NotNil(t, items[1].CompletedAt, "completed legacy items get a completion time")
	for _, it := range items {
		assert.NoError(t, it.Valid())
	}
	labels, err := dst.ReadCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"errands", "home"}, labels)

	has, err := src.HasData()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestImport_SkipsWhenRemoteHasItems(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeLegacy(t, dir, legacyTodos, "")
	src := jsonfile.New(dir)
	dst := memremote.New().Collection("u1")
	require.NoError(t, dst.WriteOne(ctx, model.Item{ID: "r", Text: "remote"}))

	res, err := Import(ctx, src, dst, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	items, _ := dst.ReadAll(ctx)
	assert.Len(t, items, 1)
	has, _ := src.HasData()
	assert.False(t, has, "local data is cleared either way")
}

func TestImport_NothingToDo(t *testing.T) {
	ctx := context.Background()
	src := jsonfile.New(t.TempDir())
	dst := memremote.New().Collection("u1")

	res, err := Import(ctx, src, dst, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
