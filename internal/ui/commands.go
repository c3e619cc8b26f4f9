package ui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/logtail"
	"github.com/five82/bookclub/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// loadedMsg reports a collection load; the entries themselves go through
// the store.
type loadedMsg struct {
	rel   string
	err   error
	stale bool // dropped by the store
}

// detailMsg carries an entry re-read through its self control.
type detailMsg struct {
	rel   string
	entry browse.Entry
	err   error
}

type mutation int

const (
	mutationCreate mutation = iota
	mutationEdit
	mutationDelete
)

func (m mutation) String() string {
	switch m {
	case mutationCreate:
		return "Created"
	case mutationEdit:
		return "Saved"
	default:
		return "Deleted"
	}
}

// resultMsg carries the outcome of a write. A rejected write is a result,
// not an error.
type resultMsg struct {
	rel    string
	kind   mutation
	result client.Result
	err    error
}

// logMsg carries the warning and error lines of the log file.
type logMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// await runs fn on the worker pool and blocks the command goroutine, never
// the program loop, until it settles.
func await[T any](ctx context.Context, workers *async.Pool, fn func(context.Context) (T, error)) (T, error) {
	return async.Go(workers, ctx, fn).Await(ctx)
}

// loadCmd pins the store generation when it is created, so a load issued
// before an identity change cannot land after it.
func loadCmd(ctx context.Context, workers *async.Pool, store *state.Store, s browse.Section) tea.Cmd {
	gen := store.Generation()
	return func() tea.Msg {
		entries, err := await(ctx, workers, s.Load)
		if !store.UpdateAt(gen, s.Relation(), entries, err) {
			return loadedMsg{rel: s.Relation(), stale: true}
		}
		return loadedMsg{rel: s.Relation(), err: err}
	}
}

func detailCmd(ctx context.Context, workers *async.Pool, s browse.Section, e browse.Entry) tea.Cmd {
	return func() tea.Msg {
		fresh, err := await(ctx, workers, func(ctx context.Context) (browse.Entry, error) {
			return s.Refresh(ctx, e)
		})
		return detailMsg{rel: s.Relation(), entry: fresh, err: err}
	}
}

func createCmd(ctx context.Context, workers *async.Pool, s browse.Section, draft any) tea.Cmd {
	return func() tea.Msg {
		res, err := await(ctx, workers, func(ctx context.Context) (client.Result, error) {
			return s.Create(ctx, draft)
		})
		return resultMsg{rel: s.Relation(), kind: mutationCreate, result: res, err: err}
	}
}

func editCmd(ctx context.Context, workers *async.Pool, s browse.Section, e browse.Entry, updated any) tea.Cmd {
	return func() tea.Msg {
		res, err := await(ctx, workers, func(ctx context.Context) (client.Result, error) {
			return s.Edit(ctx, e, updated)
		})
		return resultMsg{rel: s.Relation(), kind: mutationEdit, result: res, err: err}
	}
}

func deleteCmd(ctx context.Context, workers *async.Pool, s browse.Section, e browse.Entry) tea.Cmd {
	return func() tea.Msg {
		res, err := await(ctx, workers, func(ctx context.Context) (client.Result, error) {
			return s.Delete(ctx, e)
		})
		return resultMsg{rel: s.Relation(), kind: mutationDelete, result: res, err: err}
	}
}

func problemsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logFetchLimit)
		if err != nil {
			return logMsg{err: err}
		}
		return logMsg{lines: logtail.AtLeast(lines, slog.LevelWarn)}
	}
}
