package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/remote/memremote"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/ui"
)

var now = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	ui.SetTheme("mono")
	m.Run()
}

func newModel(t *testing.T, seed ...model.Item) (Model, *session.Session) {
	t.Helper()
	ctx := context.Background()
	coll := memremote.New().Collection("u1")
	for _, it := range seed {
		require.NoError(t, coll.WriteOne(ctx, it))
	}
	n := NewNotifier()
	s, err := session.SignIn(ctx, session.User{ID: "u1"}, coll,
		session.WithoutSubscriptions(),
		session.WithClock(func() time.Time { return now }),
		session.WithRender(n.Render),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return New(s, n, WithLocation(time.UTC), WithClock(func() time.Time { return now })), s
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func rendered(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(renderMsg{view: optimistic.ViewItems})
	return next.(Model)
}

func pendingTexts(m Model) []string {
	out := []string{}
	for _, li := range m.list.Items() {
		out = append(out, li.(listItem).item.Text)
	}
	return out
}

func TestModel_ShowsPendingOnly(t *testing.T) {
	done := model.Item{ID: "b", Text: "done already"}
	done.SetCompleted(true, now)
	m, _ := newModel(t, model.Item{ID: "a", Text: "open"}, done)

	assert.Equal(t, []string{"open"}, pendingTexts(m))
	assert.Contains(t, m.View(), "Todos  x 1  - 1  Total 2")
}

func TestModel_ToggleAndDelete(t *testing.T) {
	m, s := newModel(t, model.Item{ID: "a", Text: "one"}, model.Item{ID: "b", Text: "two"})

	m = rendered(t, press(t, m, " "))
	it, ok := s.Store.Find("a")
	require.True(t, ok)
	assert.True(t, it.Completed)
	assert.Equal(t, []string{"two"}, pendingTexts(m))

	m = rendered(t, press(t, m, "d"))
	_, ok = s.Store.Find("b")
	assert.False(t, ok)
	assert.Empty(t, pendingTexts(m))
}

func TestModel_AddPrompt(t *testing.T) {
	m, s := newModel(t)

	m = press(t, m, "a", "Buy milk #errands @2026-10-20", "enter")
	assert.Equal(t, promptNone, m.prompt)
	items := s.Store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Buy milk", items[0].Text)
	assert.Equal(t, "errands", items[0].Category)
	require.NotNil(t, items[0].Deadline)
	assert.Equal(t, model.Date("2026-10-20"), *items[0].Deadline)
	assert.True(t, s.Store.HasCategory("errands"))

	m = press(t, m, "a", "enter")
	assert.Equal(t, promptAdd, m.prompt, "blank text keeps the prompt open")
	assert.True(t, m.statusErr)
	assert.Len(t, s.Store.Items(), 1)

	m = press(t, m, "esc")
	assert.Equal(t, promptNone, m.prompt)
}

func TestModel_AddUsesFilterAsDefaultCategory(t *testing.T) {
	m, s := newModel(t)
	s.Engine.RegisterCategory("work")

	m = press(t, m, "c", "a", "write report", "enter")
	items := s.Store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "work", items[0].Category)
}

func TestModel_DeadlinePrompt(t *testing.T) {
	m, s := newModel(t, model.Item{ID: "a", Text: "one"})

	m = press(t, m, "t", "2026-11-01", "enter")
	it, _ := s.Store.Find("a")
	require.NotNil(t, it.Deadline)
	assert.Equal(t, model.Date("2026-11-01"), *it.Deadline)

	m = rendered(t, m)
	m = press(t, m, "t", "nope")
	m = press(t, m, "enter")
	assert.True(t, m.statusErr)
	assert.Equal(t, promptDeadline, m.prompt)

	// clear the field, then submit empty
	for range "2026-11-01nope" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
		m = next.(Model)
	}
	m = press(t, m, "enter")
	it, _ = s.Store.Find("a")
	assert.Nil(t, it.Deadline)
}

func TestModel_FilterCycle(t *testing.T) {
	m, s := newModel(t,
		model.Item{ID: "a", Text: "home thing", Category: "home"},
		model.Item{ID: "b", Text: "work thing", Category: "work"},
	)
	s.Engine.RegisterCategory("home")
	s.Engine.RegisterCategory("work")

	m = press(t, m, "c")
	assert.Equal(t, "home", s.Selection.State().Filter)
	assert.Equal(t, []string{"home thing"}, pendingTexts(m))

	m = press(t, m, "c")
	assert.Equal(t, []string{"work thing"}, pendingTexts(m))

	m = press(t, m, "r")
	assert.False(t, s.Store.HasCategory("work"))
	assert.Equal(t, "", s.Selection.State().Filter, "removing the filtered category clears the filter")
	m = rendered(t, m)
	assert.Len(t, pendingTexts(m), 2)
}

func TestNextCategory(t *testing.T) {
	labels := model.Categories{"a", "b"}
	assert.Equal(t, "a", nextCategory(labels, ""))
	assert.Equal(t, "b", nextCategory(labels, "a"))
	assert.Equal(t, "", nextCategory(labels, "b"))
	assert.Equal(t, "", nextCategory(labels, "gone"))
	assert.Equal(t, "", nextCategory(nil, ""))
}

func TestModel_Calendar(t *testing.T) {
	due := model.Date("2026-10-20")
	m, s := newModel(t, model.Item{ID: "a", Text: "dentist", Deadline: &due})

	m = press(t, m, "tab")
	assert.Equal(t, modeCalendar, m.mode)
	assert.Contains(t, m.View(), "October 2026")
	assert.Contains(t, m.View(), "- dentist")

	m = press(t, m, "l", "l", "enter")
	require.NotNil(t, s.Selection.State().SelectedDate)
	assert.Equal(t, due, *s.Selection.State().SelectedDate)
	assert.Contains(t, m.View(), "Deadline")

	m = press(t, m, "]")
	st := s.Selection.State()
	assert.Equal(t, time.November, st.Month)
	assert.Nil(t, st.SelectedDate, "changing month clears the selected date")
	assert.Equal(t, model.Date("2026-11-01"), m.cursor)

	m = press(t, m, "h")
	assert.Equal(t, time.October, s.Selection.State().Month, "cursor drags the month back")

	m = press(t, m, "tab")
	assert.Equal(t, modeList, m.mode)
}

func TestModel_WriteFailureShowsStatus(t *testing.T) {
	m, _ := newModel(t)
	for len(m.n.ch) > 0 {
		<-m.n.ch
	}
	m.n.Settled(optimistic.Mutation{Kind: optimistic.KindToggle}, errors.New("offline"), true)

	cmd := m.Init()
	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.True(t, m.statusErr)
	assert.Equal(t, "sync failed (toggle), change reverted", m.status)
}

func TestNotifier_RenderNeverBlocks(t *testing.T) {
	n := NewNotifier()
	for i := 0; i < 100; i++ {
		n.Render(optimistic.ViewItems)
	}
	n.Settled(optimistic.Mutation{Kind: optimistic.KindCreate}, nil, false)
	assert.Len(t, n.fail, 0, "successful writes are not reported")
}

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry("  call mom #family @2026-10-19 tonight ")
	require.NoError(t, err)
	assert.Equal(t, "call mom tonight", e.Text)
	assert.Equal(t, "family", e.Category)
	require.NotNil(t, e.Deadline)
	assert.Equal(t, model.Date("2026-10-19"), *e.Deadline)

	e, err = ParseEntry("plain # @")
	require.NoError(t, err)
	assert.Equal(t, "plain # @", e.Text)
	assert.Nil(t, e.Deadline)

	_, err = ParseEntry("x @tomorrow")
	assert.Error(t, err)
}
