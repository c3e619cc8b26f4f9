package mockapi

import (
	"net/http"
	"slices"
	"sync"

	"github.com/five82/bookclub/internal/mason"
)

// apiError is the bare error record the API sends with failing statuses.
type apiError struct {
	HTTPStatus int    `json:"httpStatusCode"`
	Message    string `json:"message"`
	Resource   string `json:"resource,omitempty"`
}

func fail(status int, msg string) *apiError {
	return &apiError{HTTPStatus: status, Message: msg}
}

// table is one in-memory collection.
type table[T any] struct {
	name  string
	rel   string
	title string

	// id returns the record's identity.
	id func(*T) string
	// check validates an incoming record. prev is nil on create.
	check func(r *http.Request, prev, next *T) *apiError
	// owns reports whether the caller may edit or delete rec.
	owns func(r *http.Request, rec *T) bool

	mu      sync.RWMutex
	order   []string
	records map[string]T
}

func newTable[T any](name, rel, title string, id func(*T) string) *table[T] {
	return &table[T]{
		name:    name,
		rel:     rel,
		title:   title,
		id:      id,
		records: make(map[string]T),
		check:   func(*http.Request, *T, *T) *apiError { return nil },
		owns:    func(*http.Request, *T) bool { return true },
	}
}

func (t *table[T]) collectionHref() string { return "/api/" + t.name + "/" }

func (t *table[T]) itemHref(id string) string { return t.collectionHref() + id + "/" }

func (t *table[T]) list() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.records[id])
	}
	return out
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	return rec, ok
}

func (t *table[T]) insert(rec T) bool {
	id := t.id(&rec)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.records[id]; exists {
		return false
	}
	t.records[id] = rec
	t.order = append(t.order, id)
	return true
}

func (t *table[T]) replace(id string, rec T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return false
	}
	t.records[id] = rec
	return true
}

func (t *table[T]) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return false
	}
	delete(t.records, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
	return true
}

func (t *table[T]) collectionControls() mason.Controls {
	href := t.collectionHref()
	return mason.Controls{
		mason.RelSelf: {Href: href},
		mason.RelHome: {Href: "/api/"},
		mason.RelAdd: {
			Href:     href,
			Method:   http.MethodPost,
			Encoding: "json",
			Title:    "Add " + t.title,
		},
	}
}

func (t *table[T]) itemControls(r *http.Request, rec *T) mason.Controls {
	href := t.itemHref(t.id(rec))
	cs := mason.Controls{
		mason.RelSelf:       {Href: href},
		mason.RelCollection: {Href: t.collectionHref()},
	}
	if t.owns(r, rec) {
		cs[mason.RelEdit] = mason.Control{Href: href, Method: http.MethodPut, Encoding: "json", Title: "Edit " + t.title}
		cs[mason.RelDelete] = mason.Control{Href: href, Method: http.MethodDelete, Title: "Delete " + t.title}
	}
	return cs
}
