package itemstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

func item(id, text string) model.Item {
	return model.Item{ID: id, Text: text, CreatedAt: time.Now()}
}

func ids(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestStore_AppendKeepsOrderAndUniqueIDs(t *testing.T) {
	s := New()
	require.True(t, s.Append(item("a", "A")))
	require.True(t, s.Append(item("b", "B")))
	assert.False(t, s.Append(item("a", "again")))

	assert.Equal(t, []string{"a", "b"}, ids(s.Items()))
	got, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", got.Text)
}

func TestStore_RemoveByID(t *testing.T) {
	s := New()
	s.Append(item("a", "A"))
	s.Append(item("b", "B"))
	s.Append(item("c", "C"))

	removed, ok := s.Remove("b")
	require.True(t, ok)
	assert.Equal(t, "B", removed.Text)
	assert.Equal(t, []string{"a", "c"}, ids(s.Items()))

	_, ok = s.Remove("missing")
	assert.False(t, ok)
}

func TestStore_UpdateReturnsBefore(t *testing.T) {
	s := New()
	s.Append(item("a", "A"))

	before, ok := s.Update("a", func(it *model.Item) { it.SetCompleted(true, time.Now()) })
	require.True(t, ok)
	assert.False(t, before.Completed)
	assert.Nil(t, before.CompletedAt)

	after, _ := s.Find("a")
	assert.True(t, after.Completed)
	assert.NotNil(t, after.CompletedAt)
}

func TestStore_ItemsIsACopy(t *testing.T) {
	s := New()
	s.Append(item("a", "A"))
	items := s.Items()
	items[0].Text = "changed"

	got, _ := s.Find("a")
	assert.Equal(t, "A", got.Text)
}

func TestStore_Categories(t *testing.T) {
	s := New()
	assert.True(t, s.AddCategory("work"))
	assert.False(t, s.AddCategory("work"))
	assert.False(t, s.AddCategory("  "))
	assert.True(t, s.AddCategory("home"))
	assert.Equal(t, model.Categories{"work", "home"}, s.Categories())

	assert.True(t, s.RemoveCategory("work"))
	assert.False(t, s.RemoveCategory("work"))

	s.ReplaceCategories([]string{"x", "y", "x"})
	assert.Equal(t, model.Categories{"x", "y"}, s.Categories())

	s.Clear()
	assert.Empty(t, s.Categories())
	assert.Zero(t, s.Len())
}
