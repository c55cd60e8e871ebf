package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

func localEnv(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TADA_BACKEND", backend)
	t.Setenv("TADA_DATA_DIR", dir)
	t.Setenv("TADA_SQLITE_PATH", "")
	t.Setenv("TADA_THEME", "mono")
	t.Setenv("TADA_CREDENTIALS_DIR", filepath.Join(dir, "creds"))
	t.Setenv("TADA_TOKEN", "")
	t.Setenv("TADA_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	err := cmd.Execute()
	return out.String(), errb.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	require.NoError(t, err, "tada %v\nstderr:\n%s", args, errOut)
	return out
}

func TestCLI_ItemLifecycle(t *testing.T) {
	localEnv(t, "json")

	assert.Contains(t, mustRun(t, "add", "Buy", "milk", "--category", "errands", "--due", "2026-10-20"), "x added ")
	mustRun(t, "add", "Walk the dog")

	out := mustRun(t, "ls")
	assert.Contains(t, out, " 1. [ ] Buy milk #errands ! 2026-10-20")
	assert.Contains(t, out, " 2. [ ] Walk the dog")
	assert.Contains(t, out, "Todos  x 0  - 2  Total 2")

	assert.Contains(t, mustRun(t, "done", "1"), "completed: Buy milk")
	out = mustRun(t, "ls", "--pending")
	assert.NotContains(t, out, "Buy milk")
	assert.Contains(t, out, " 2. [ ] Walk the dog", "filtered lists keep the full numbering")

	out = mustRun(t, "ls", "--group")
	assert.Less(t, strings.Index(out, "Walk the dog"), strings.Index(out, "Buy milk"))

	assert.Contains(t, mustRun(t, "done", "1"), "reopened: Buy milk")

	assert.Contains(t, mustRun(t, "due", "2", "2026-11-05"), "due 2026-11-05: Walk the dog")
	assert.Contains(t, mustRun(t, "ls", "-c", "errands"), "Buy milk")
	assert.NotContains(t, mustRun(t, "ls", "-c", "errands"), "Walk the dog")
	assert.Contains(t, mustRun(t, "due", "2", "none"), "deadline cleared")

	assert.Contains(t, mustRun(t, "rm", "2"), "removed: Walk the dog")
	out = mustRun(t, "ls")
	assert.NotContains(t, out, "Walk the dog")
	assert.Contains(t, out, "Total 1")
}

func TestCLI_Categories(t *testing.T) {
	localEnv(t, "json")

	mustRun(t, "cat", "add", "home")
	mustRun(t, "add", "paint fence", "-c", "home")
	mustRun(t, "add", "file taxes", "-c", "admin")

	out := mustRun(t, "cat", "ls")
	assert.Contains(t, out, "#home (1 open)")
	assert.Contains(t, out, "#admin (1 open)")

	mustRun(t, "cat", "rm", "home")
	out = mustRun(t, "cat", "ls")
	assert.NotContains(t, out, "#home")
	assert.Contains(t, mustRun(t, "ls"), "paint fence #home", "items keep their label")

	_, _, err := run(t, "cat", "rm", "nope")
	var nf notFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCLI_Errors(t *testing.T) {
	localEnv(t, "json")

	var out, errb bytes.Buffer
	assert.Equal(t, 1, Execute([]string{"done", "9"}, &out, &errb))
	assert.Contains(t, errb.String(), "x index out of range")

	_, _, err := run(t, "add", "x", "--due", "someday")
	assert.Error(t, err)

	_, _, err = run(t, "--backend", "floppy", "ls")
	assert.ErrorContains(t, err, "unsupported TADA_BACKEND")

	_, _, err = run(t, "--backend", "cloud", "ls")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCLI_SQLiteAndMigrate(t *testing.T) {
	localEnv(t, "json")
	mustRun(t, "add", "legacy item", "-c", "old")

	assert.Contains(t, mustRun(t, "--backend", "sqlite", "migrate"), "migrated 1 items and 1 categories")
	assert.Contains(t, mustRun(t, "ls"), "no items", "local json data is cleared")
	assert.Contains(t, mustRun(t, "--backend", "sqlite", "ls"), "legacy item #old")
	assert.Contains(t, mustRun(t, "--backend", "sqlite", "migrate"), "nothing to migrate")

	_, _, err := run(t, "migrate")
	assert.Error(t, err, "json cannot migrate into itself")
}

func TestCLI_CalendarAndDay(t *testing.T) {
	localEnv(t, "json")
	mustRun(t, "add", "dentist", "--due", "2026-10-20")

	out := mustRun(t, "cal", "2026-10")
	assert.Contains(t, out, "October 2026")
	assert.Contains(t, out, "- dentist")

	out = mustRun(t, "day", "2026-10-20")
	assert.Contains(t, out, "Deadline")
	assert.Contains(t, out, "dentist")

	_, _, err := run(t, "cal", "October")
	assert.Error(t, err)
}

func TestCLI_CloudBackend(t *testing.T) {
	dir := localEnv(t, "json")
	mustRun(t, "add", "from before sign-in")

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, "127.0.0.1:0", filepath.Join(dir, "docs.sqlite"), []byte("s3cret"), "error", ready)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve: %v", err)
	}

	tok := strings.TrimSpace(mustRun(t, "auth", "token", "--secret", "s3cret", "--sub", "alice", "--name", "Alice"))
	assert.Contains(t, mustRun(t, "auth", "login", "--token", tok), "logged in as alice")
	out := mustRun(t, "auth", "whoami")
	assert.Contains(t, out, "user: alice")
	assert.Contains(t, out, "name: Alice")
	assert.Contains(t, mustRun(t, "auth", "status"), "source: file")

	t.Setenv("TADA_BACKEND", "cloud")
	t.Setenv("TADA_CLOUD_URL", "http://"+addr)

	out = mustRun(t, "ls")
	assert.Contains(t, out, "from before sign-in", "local data is imported on first cloud use")

	mustRun(t, "add", "synced", "-c", "cloud")
	out = mustRun(t, "ls")
	assert.Contains(t, out, "synced #cloud")
	assert.Contains(t, mustRun(t, "cat", "ls"), "#cloud")

	bob, err := issueFor(t, "bob")
	require.NoError(t, err)
	t.Setenv("TADA_TOKEN", bob)
	assert.Contains(t, mustRun(t, "ls"), "no items", "users see only their own todos")

	t.Setenv("TADA_TOKEN", "")
	mustRun(t, "auth", "logout")
	_, _, err = run(t, "ls")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCLI_CloudUnreachableFailsLoudly(t *testing.T) {
	localEnv(t, "cloud")
	tok, err := issueFor(t, "alice")
	require.NoError(t, err)
	t.Setenv("TADA_TOKEN", tok)
	t.Setenv("TADA_CLOUD_URL", "http://127.0.0.1:1")

	_, _, err = run(t, "ls")
	var rerr *remote.ReadError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorContains(t, err, "load todos")

	_, _, err = run(t, "done", "1")
	assert.ErrorAs(t, err, &rerr, "no misleading index error from an empty store")
}

func issueFor(t *testing.T, sub string) (string, error) {
	t.Helper()
	out, _, err := run(t, "auth", "token", "--secret", "s3cret", "--sub", sub)
	return strings.TrimSpace(out), err
}

func TestResolve(t *testing.T) {
	items := []model.Item{
		{ID: "abc123", Text: "one"},
		{ID: "abd456", Text: "two"},
		{ID: "x", Text: "three"},
	}

	it, err := resolve(items, "2")
	require.NoError(t, err)
	assert.Equal(t, "two", it.Text)

	it, err = resolve(items, "abc")
	require.NoError(t, err)
	assert.Equal(t, "one", it.Text)

	it, err = resolve(items, "x")
	require.NoError(t, err)
	assert.Equal(t, "three", it.Text)

	_, err = resolve(items, "ab")
	var amb ambiguousError
	assert.ErrorAs(t, err, &amb)

	_, err = resolve(items, "zz")
	var nf notFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = resolve(items, "0")
	assert.ErrorContains(t, err, "index out of range")
}

func TestParseDue(t *testing.T) {
	d, err := parseDue("none")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDue("tomorrow")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, model.Today(nil).AddDays(1), *d)

	_, err = parseDue("31/12/2026")
	assert.Error(t, err)
}
