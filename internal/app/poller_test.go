package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/entity"
	"github.com/five82/bookclub/internal/mason"
	"github.com/five82/bookclub/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongIntervalUnchanged(t *testing.T) {
	if got := calculateBackoff(3, time.Minute); got != time.Minute {
		t.Fatalf("calculateBackoff(3, 1m) = %v, want 1m", got)
	}
}

var discard = slog.New(slog.DiscardHandler)

// stubSection serves canned loads.
type stubSection struct {
	rel     string
	entries []browse.Entry
	err     error
	loads   int
	during  func() // runs while the load is in flight
}

func (s *stubSection) Relation() string           { return s.rel }
func (s *stubSection) Label() string              { return mason.RelationLabel(s.rel) }
func (s *stubSection) Schema() *entity.Schema     { return nil }
func (s *stubSection) Add() (mason.Control, bool) { return mason.Control{}, false }
func (s *stubSection) New() any                   { return nil }
func (s *stubSection) Load(context.Context) ([]browse.Entry, error) {
	s.loads++
	if s.during != nil {
		s.during()
	}
	return s.entries, s.err
}
func (s *stubSection) Refresh(_ context.Context, e browse.Entry) (browse.Entry, error) {
	return e, nil
}
func (s *stubSection) Edit(context.Context, browse.Entry, any) (client.Result, error) {
	return client.Result{}, nil
}
func (s *stubSection) Create(context.Context, any) (client.Result, error) {
	return client.Result{}, nil
}
func (s *stubSection) Delete(context.Context, browse.Entry) (client.Result, error) {
	return client.Result{}, nil
}

func TestRefresh_UpdatesStorePerSection(t *testing.T) {
	store := &state.Store{}
	users := &stubSection{rel: mason.RelUsers, entries: []browse.Entry{{Controls: mason.Controls{}}}}
	books := &stubSection{rel: mason.RelBooks, err: errors.New("offline")}

	refresh(context.Background(), store, []browse.Section{users, books}, discard)

	snap := store.Snapshot()
	if len(snap.Entries[mason.RelUsers]) != 1 {
		t.Fatalf("users entries = %#v, want 1", snap.Entries[mason.RelUsers])
	}
	if snap.HasLoaded(mason.RelBooks) {
		t.Fatal("failed section should not count as loaded")
	}
	if snap.ConsecutiveFailures != 1 || snap.LastError == nil {
		t.Fatalf("failures = %d err = %v, want 1 and an error", snap.ConsecutiveFailures, snap.LastError)
	}
}

func TestRefresh_StopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	users := &stubSection{rel: mason.RelUsers}

	refresh(ctx, &state.Store{}, []browse.Section{users}, discard)

	if users.loads != 0 {
		t.Fatalf("loads = %d, want 0 after cancellation", users.loads)
	}
}

func TestRefresh_DropsRoundAfterIdentityChange(t *testing.T) {
	store := &state.Store{}
	users := &stubSection{
		rel:     mason.RelUsers,
		entries: []browse.Entry{{Controls: mason.Controls{mason.RelEdit: {Href: "/api/users/ann/"}}}},
		during:  store.Forget,
	}
	books := &stubSection{rel: mason.RelBooks}

	refresh(context.Background(), store, []browse.Section{users, books}, discard)

	if snap := store.Snapshot(); snap.HasLoaded(mason.RelUsers) || len(snap.Entries) != 0 {
		t.Fatalf("load from before the reset reached the store: %#v", snap.Entries)
	}
	if books.loads != 0 {
		t.Fatalf("books loads = %d, want the round to stop", books.loads)
	}
}
