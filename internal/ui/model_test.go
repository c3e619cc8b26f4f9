package ui

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/mason"
	"github.com/five82/bookclub/internal/mockapi"
	"github.com/five82/bookclub/internal/model"
	"github.com/five82/bookclub/internal/prefs"
)

func newTestModel(t *testing.T, user string) Model {
	t.Helper()
	srv := mockapi.New(nil)
	srv.Seed()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	workers := async.NewPool(4, nil)
	c, err := client.New(client.Config{BaseURL: ts.URL + "/api/", User: user, Workers: workers})
	require.NoError(t, err)
	b := browse.New(c, nil)
	root, err := b.Root(ctx)
	require.NoError(t, err)
	sections, err := browse.DefaultSections(b, root)
	require.NoError(t, err)

	m := New(Options{
		Context:   ctx,
		Client:    c,
		Browser:   b,
		Sections:  sections,
		Prefs:     prefs.Prefs{Theme: "Dusk"},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m, _ = step(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func step(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds the resulting messages back until nothing
// further is scheduled.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
		return m
	default:
		next, cmd := step(m, msg)
		return run(t, next, cmd)
	}
}

func press(m Model, keys string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	return step(m, msg)
}

// pressRun presses keys and runs whatever command follows.
func pressRun(t *testing.T, m Model, keys string) Model {
	t.Helper()
	m, cmd := press(m, keys)
	return run(t, m, cmd)
}

func setField(t *testing.T, f *form, wire, value string) {
	t.Helper()
	for i := range f.fields {
		if f.fields[i].field.WireName == wire {
			f.fields[i].input.SetValue(value)
			return
		}
	}
	t.Fatalf("form has no field %q", wire)
}

func openBooks(t *testing.T, m Model) Model {
	t.Helper()
	m = run(t, m, m.load(m.section()))
	m = pressRun(t, m, "tab")
	m = pressRun(t, m, "tab")
	require.Equal(t, mason.RelBooks, m.section().Relation())
	require.Len(t, m.entries(), 2)
	return m
}

func TestInitialLoadShowsEntries(t *testing.T) {
	m := newTestModel(t, "ann")
	assert.Contains(t, m.View(), "Loading Users")

	m = run(t, m, m.load(m.section()))

	view := m.View()
	assert.Contains(t, view, "ann")
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "Add user")
	assert.Empty(t, m.loading)
}

func TestSwitchSectionLoadsOnlyOnce(t *testing.T) {
	m := newTestModel(t, "ann")
	m = run(t, m, m.load(m.section()))

	m, cmd := press(m, "tab")
	require.NotNil(t, cmd, "first visit loads")
	m = run(t, m, cmd)
	assert.Equal(t, mason.RelClubs, m.section().Relation())

	m, _ = press(m, "shift+tab")
	m, cmd = press(m, "tab")
	assert.Nil(t, cmd, "loaded collections are not reloaded on return")
	assert.Equal(t, mason.RelClubs, m.section().Relation())
}

func TestCreateRetriesUntilAccepted(t *testing.T) {
	m := openBooks(t, newTestModel(t, "ann"))

	m, _ = press(m, "a")
	require.Equal(t, ModeForm, m.mode)
	setField(t, m.form, "handle", "hyperion")

	m = pressRun(t, m, "enter")
	require.Equal(t, ModeForm, m.mode, "rejected draft stays open")
	assert.Equal(t, "full_name required", m.form.message)
	assert.Contains(t, m.View(), "full_name required")

	setField(t, m.form, "full_name", "Hyperion")
	m = pressRun(t, m, "enter")

	assert.Equal(t, ModeList, m.mode)
	assert.Nil(t, m.form)
	assert.False(t, m.failed)
	assert.True(t, strings.HasPrefix(m.status, "Created"), m.status)
	assert.Len(t, m.entries(), 3)
}

func TestFormParseErrorSendsNothing(t *testing.T) {
	m := openBooks(t, newTestModel(t, "ann"))

	m, _ = press(m, "a")
	setField(t, m.form, "handle", "x")
	setField(t, m.form, "full_name", "X")
	setField(t, m.form, "pages", "many")

	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Contains(t, m.form.message, "not a whole number")
	assert.False(t, m.form.pending)
}

func TestEditRequiresControl(t *testing.T) {
	m := newTestModel(t, "bob")
	m = run(t, m, m.load(m.section()))
	m = pressRun(t, m, "tab")
	require.Equal(t, mason.RelClubs, m.section().Relation())

	m, cmd := press(m, "e")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeList, m.mode)
	assert.True(t, m.failed)
	assert.Contains(t, m.status, "not editable")
}

func TestEditFromDetailRereadsItem(t *testing.T) {
	m := openBooks(t, newTestModel(t, "ann"))

	m = pressRun(t, m, "enter")
	require.Equal(t, ModeDetail, m.mode)
	assert.Equal(t, "dune", m.detail.Identity())
	assert.Contains(t, m.View(), "(id)")

	m, _ = press(m, "e")
	require.Equal(t, ModeForm, m.mode)
	assert.True(t, m.form.fields[0].readOnly, "identity is locked")
	setField(t, m.form, "full_name", "Dune Messiah")

	m = pressRun(t, m, "enter")
	require.Equal(t, ModeDetail, m.mode)
	book, ok := m.detail.Payload.(*model.Book)
	require.True(t, ok)
	assert.Equal(t, "Dune Messiah", book.Name)
	assert.Equal(t, "Saved", m.status)
}

func TestDeleteAsksFirst(t *testing.T) {
	m := openBooks(t, newTestModel(t, "ann"))

	m, _ = press(m, "d")
	require.Equal(t, ModeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Delete dune?")
	m, cmd := press(m, "n")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeList, m.mode)

	m, _ = press(m, "d")
	m = pressRun(t, m, "y")
	assert.Equal(t, ModeList, m.mode)
	assert.Equal(t, "Deleted", m.status)
	require.Len(t, m.entries(), 1)
	assert.Equal(t, "solaris", m.entries()[0].Identity())
}

func TestThemeCyclePersists(t *testing.T) {
	m := newTestModel(t, "ann")

	m, _ = press(m, "T")

	assert.Equal(t, "Paper", m.theme.Name)
	assert.Equal(t, "Paper", prefs.Load(m.prefsPath).Theme)
}

func TestSetUserPersistsAndReloads(t *testing.T) {
	m := newTestModel(t, "ann")
	m = run(t, m, m.load(m.section()))

	m, _ = press(m, "u")
	require.Equal(t, ModeSetUser, m.mode)
	m.userInput.SetValue(" bob ")
	m = pressRun(t, m, "enter")

	assert.Equal(t, ModeList, m.mode)
	assert.Equal(t, "bob", m.client.User())
	assert.Equal(t, "Acting as bob", m.status)
	assert.Equal(t, "bob", prefs.Load(m.prefsPath).LastUser)
	assert.Len(t, m.entries(), 2, "active collection reloaded")
}

func TestHelpToggles(t *testing.T) {
	m := newTestModel(t, "")

	m, _ = press(m, "?")
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = press(m, "?")
	assert.False(t, m.showHelp)
	assert.Contains(t, m.View(), "as anonymous")
}

func TestProblemsShowsWarnings(t *testing.T) {
	m := newTestModel(t, "ann")
	m.logPath = filepath.Join(t.TempDir(), "bookclub.log")
	log := strings.Join([]string{
		`time=2026-01-02T15:04:05Z level=INFO msg="loaded collection" relation=bc:users-all`,
		`time=2026-01-02T15:04:06Z level=WARN msg="refresh failed" relation=bc:books-all`,
		`time=2026-01-02T15:04:07Z level=ERROR msg="create rejected" status=400`,
	}, "\n")
	require.NoError(t, os.WriteFile(m.logPath, []byte(log+"\n"), 0o644))

	m = pressRun(t, m, "L")
	require.True(t, m.showLog)
	view := m.View()
	assert.Contains(t, view, "Problems")
	assert.Contains(t, view, "refresh failed")
	assert.Contains(t, view, "create rejected")
	assert.NotContains(t, view, "loaded collection")

	m, _ = press(m, "L")
	assert.False(t, m.showLog)
}

func TestProblemsWithoutLogFile(t *testing.T) {
	m := newTestModel(t, "ann")
	m.logPath = filepath.Join(t.TempDir(), "missing.log")

	m = pressRun(t, m, "L")
	assert.Contains(t, m.View(), "No problems logged.")

	m, _ = press(m, "esc")
	assert.False(t, m.showLog)
}

func TestLoadIssuedBeforeUserSwitchIsDropped(t *testing.T) {
	m := newTestModel(t, "ann")
	s := m.section()
	cmd := m.load(s)

	m.store.Forget()
	msg := cmd()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok)
	assert.True(t, loaded.stale)

	m, _ = step(m, msg)
	assert.False(t, m.snapshot.HasLoaded(s.Relation()))
	assert.True(t, m.loading[s.Relation()], "the newer load is still outstanding")
}

func TestSetUserWithdrawsAddUntilReload(t *testing.T) {
	m := newTestModel(t, "ann")
	m = run(t, m, m.load(m.section()))
	_, ok := m.section().Add()
	require.True(t, ok)

	m, _ = press(m, "u")
	m.userInput.SetValue("bob")
	m, cmd := press(m, "enter")
	_, ok = m.section().Add()
	assert.False(t, ok, "add belongs to the previous identity")

	m = run(t, m, cmd)
	_, ok = m.section().Add()
	assert.True(t, ok)
}
