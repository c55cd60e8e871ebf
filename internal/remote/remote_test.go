package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

func TestPatch_EncodesOnlyChangedFields(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	b, err := json.Marshal(CompletionPatch(true, &at))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Len(t, raw, 2)
	assert.Equal(t, true, raw["completed"])
	assert.Equal(t, "2026-06-01T12:00:00Z", raw["completedAt"])

	b, err = json.Marshal(DeadlinePatch(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":null}`, string(b))
}

func TestPatch_DecodeAndApply(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"deadline":"2026-07-04"}`), &p))
	assert.True(t, p.SetDeadline)
	assert.False(t, p.SetCompletion)

	it := model.Item{ID: "a", Text: "t"}
	p.Apply(&it)
	require.NotNil(t, it.Deadline)
	assert.Equal(t, model.Date("2026-07-04"), *it.Deadline)

	require.NoError(t, json.Unmarshal([]byte(`{"completed":false,"completedAt":null}`), &p))
	it.SetCompleted(true, time.Now())
	p.Apply(&it)
	assert.False(t, it.Completed)
	assert.Nil(t, it.CompletedAt)
}

func TestPatch_DecodeRejectsBadInput(t *testing.T) {
	cases := []string{
		`{}`,
		`{"text":"x"}`,
		`{"completed":true}`,
		`{"completed":true,"completedAt":null}`,
		`{"deadline":"07/04/2026"}`,
	}
	for _, c := range cases {
		var p Patch
		assert.Error(t, json.Unmarshal([]byte(c), &p), c)
	}
}

func TestErrors_Classify(t *testing.T) {
	werr := fmt.Errorf("wrapped: %w", &WriteError{Op: OpDelete, ID: "a", Err: errors.New("boom")})
	assert.True(t, IsWriteFailure(werr))
	assert.False(t, IsReadFailure(werr))
	assert.Contains(t, werr.Error(), "remote delete a: boom")

	rerr := &ReadError{Op: OpRead, Err: ErrUnauthorized}
	assert.True(t, IsReadFailure(rerr))
	assert.ErrorIs(t, rerr, ErrUnauthorized)
}

func TestHub_DeliversInitialThenPublished(t *testing.T) {
	h := NewHub()
	var got [][]model.Item
	unsub := h.SubscribeItems([]model.Item{{ID: "a"}}, func(items []model.Item, err error) {
		require.NoError(t, err)
		got = append(got, items)
	})

	h.PublishItems([]model.Item{{ID: "a"}, {ID: "b"}})
	unsub()
	unsub()
	h.PublishItems(nil)

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	assert.Len(t, got[1], 2)

	n, _ := h.Counts()
	assert.Zero(t, n)
}

func TestHub_Categories(t *testing.T) {
	h := NewHub()
	var last []string
	h.SubscribeCategories([]string{"work"}, func(labels []string, err error) { last = labels })
	assert.Equal(t, []string{"work"}, last)

	h.PublishCategories([]string{"work", "home"})
	assert.Equal(t, []string{"work", "home"}, last)

	h.Close()
	h.PublishCategories(nil)
	assert.Equal(t, []string{"work", "home"}, last)
}
