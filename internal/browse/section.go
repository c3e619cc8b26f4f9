package browse

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/entity"
	"github.com/five82/bookclub/internal/mason"
	"github.com/five82/bookclub/internal/model"
)

// Entry is one item of a section. Payload points at the decoded record.
type Entry struct {
	Payload  any
	Controls mason.Controls
}

// Identity returns the record's identity for display.
func (e Entry) Identity() string { return entity.Identity(e.Payload) }

// Can reports whether the entry offers a control for rel.
func (e Entry) Can(rel string) bool { return e.Controls.Has(rel) }

// Section is one collection relation bound to its record type, so callers
// can treat users, clubs and books alike.
type Section interface {
	Relation() string
	Label() string
	Schema() *entity.Schema
	// Add returns the collection's add control once a load has seen it. A
	// Browser reset withdraws it until the next load.
	Add() (mason.Control, bool)
	Load(ctx context.Context) ([]Entry, error)
	Refresh(ctx context.Context, e Entry) (Entry, error)
	Edit(ctx context.Context, e Entry, updated any) (client.Result, error)
	Create(ctx context.Context, draft any) (client.Result, error)
	Delete(ctx context.Context, e Entry) (client.Result, error)
	// New returns a pointer to an empty record for a create form.
	New() any
}

type section[T any] struct {
	browser *Browser
	rel     string
	label   string
	ctrl    mason.Control
	schema  *entity.Schema

	mu     sync.Mutex
	add    *mason.Control
	addGen uint64 // browser generation add was seen in
}

// NewSection binds relation rel, reached through ctrl, to record type T.
func NewSection[T any](b *Browser, rel string, ctrl mason.Control, label string) (Section, error) {
	schema, err := entity.SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if label == "" {
		label = mason.RelationLabel(rel)
	}
	return &section[T]{browser: b, rel: rel, label: label, ctrl: ctrl, schema: schema}, nil
}

// DefaultSections binds the user, club and book collections the root links
// to, in that order. Relations the root does not offer are skipped.
func DefaultSections(b *Browser, root mason.Controls) ([]Section, error) {
	bind := []struct {
		rel string
		fn  func(*Browser, string, mason.Control, string) (Section, error)
	}{
		{mason.RelUsers, NewSection[model.User]},
		{mason.RelClubs, NewSection[model.Club]},
		{mason.RelBooks, NewSection[model.Book]},
	}
	var out []Section
	for _, entry := range bind {
		ctrl, ok := root.Get(entry.rel)
		if !ok {
			continue
		}
		s, err := entry.fn(b, entry.rel, ctrl, mason.RelationLabel(entry.rel))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no known collections: %w", ErrNoRoot)
	}
	return out, nil
}

func (s *section[T]) Relation() string       { return s.rel }
func (s *section[T]) Label() string          { return s.label }
func (s *section[T]) Schema() *entity.Schema { return s.schema }
func (s *section[T]) New() any               { return new(T) }

func (s *section[T]) Add() (mason.Control, bool) {
	gen := s.browser.currentGeneration()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.add == nil || s.addGen != gen {
		return mason.Control{}, false
	}
	return *s.add, true
}

func (s *section[T]) Load(ctx context.Context) ([]Entry, error) {
	listing, err := Load[T](ctx, s.browser, s.rel, s.ctrl)
	if err != nil {
		return nil, err
	}
	if listing.Add != nil {
		s.mu.Lock()
		s.add = listing.Add
		s.addGen = listing.generation
		s.mu.Unlock()
	}
	out := make([]Entry, 0, listing.Collection.Len())
	for _, item := range listing.Collection.Items {
		out = append(out, Entry{Payload: item.Payload, Controls: item.Controls})
	}
	return out, nil
}

func (s *section[T]) envelope(e Entry) (mason.Envelope[T], error) {
	payload, ok := e.Payload.(*T)
	if !ok {
		return mason.Envelope[T]{}, fmt.Errorf("browse: %s entry holds %T", s.rel, e.Payload)
	}
	return mason.Envelope[T]{Payload: payload, Controls: e.Controls}, nil
}

func (s *section[T]) record(v any) (*T, error) {
	rec, ok := v.(*T)
	if !ok || rec == nil {
		return nil, fmt.Errorf("browse: %s expects %T, got %T", s.rel, new(T), v)
	}
	return rec, nil
}

func (s *section[T]) Refresh(ctx context.Context, e Entry) (Entry, error) {
	env, err := s.envelope(e)
	if err != nil {
		return Entry{}, err
	}
	fresh, err := Refresh(ctx, s.browser, env)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Payload: fresh.Payload, Controls: fresh.Controls}, nil
}

func (s *section[T]) Edit(ctx context.Context, e Entry, updated any) (client.Result, error) {
	env, err := s.envelope(e)
	if err != nil {
		return client.Result{}, err
	}
	rec, err := s.record(updated)
	if err != nil {
		return client.Result{}, err
	}
	return Edit(ctx, s.browser, env, rec)
}

func (s *section[T]) Create(ctx context.Context, draft any) (client.Result, error) {
	add, ok := s.Add()
	if !ok {
		return client.Result{}, fmt.Errorf("%s %s: %w", s.rel, mason.RelAdd, ErrNoControl)
	}
	rec, err := s.record(draft)
	if err != nil {
		return client.Result{}, err
	}
	return Create(ctx, s.browser, add, rec)
}

func (s *section[T]) Delete(ctx context.Context, e Entry) (client.Result, error) {
	env, err := s.envelope(e)
	if err != nil {
		return client.Result{}, err
	}
	return Delete(ctx, s.browser, env)
}
