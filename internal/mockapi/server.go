package mockapi

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/bookclub/internal/mason"
	"github.com/five82/bookclub/internal/model"
)

// HeaderUser is the request header naming the caller.
const HeaderUser = "BC-User"

var api = sonic.ConfigStd

// Server is an in-memory bookclub API speaking Mason.
type Server struct {
	router chi.Router
	logger *slog.Logger

	users *table[model.User]
	clubs *table[model.Club]
	books *table[model.Book]
}

// New returns an empty server.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		logger: logger,
		users:  newTable("users", mason.RelUsers, "user", func(u *model.User) string { return u.Username }),
		clubs:  newTable("clubs", mason.RelClubs, "club", func(c *model.Club) string { return c.Handle }),
		books:  newTable("books", mason.RelBooks, "book", func(b *model.Book) string { return b.Handle }),
	}
	s.users.check = checkUser
	s.clubs.check = checkClub
	s.clubs.owns = func(r *http.Request, c *model.Club) bool {
		return c.Owner == "" || c.Owner == caller(r)
	}
	s.books.check = checkBook

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/", s.root)
	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.root)
		mount(r, s, s.users)
		mount(r, s, s.clubs)
		mount(r, s, s.books)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Seed loads a small sample data set.
func (s *Server) Seed() {
	pages := 412
	s.users.insert(model.User{Username: "ann", Description: "Reads anything with a map in it"})
	s.users.insert(model.User{Username: "bob"})
	s.clubs.insert(model.Club{Handle: "scifi", Owner: "ann", Description: "Monthly science fiction"})
	s.books.insert(model.Book{Handle: "dune", Name: "Dune", Pages: &pages})
	s.books.insert(model.Book{Handle: "solaris", Name: "Solaris"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("mock request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"user", caller(r),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, map[string]any{
		"@controls": mason.Controls{
			mason.RelSelf:  {Href: "/api/"},
			s.users.rel:    {Href: s.users.collectionHref(), Title: "All users"},
			s.clubs.rel:    {Href: s.clubs.collectionHref(), Title: "All clubs"},
			s.books.rel:    {Href: s.books.collectionHref(), Title: "All books"},
		},
	})
}

func mount[T any](r chi.Router, s *Server, t *table[T]) {
	r.Route("/"+t.name, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			records := t.list()
			items := make([]map[string]any, 0, len(records))
			for i := range records {
				doc, err := document(r, t, &records[i])
				if err != nil {
					s.writeError(w, r, fail(http.StatusInternalServerError, err.Error()))
					return
				}
				items = append(items, doc)
			}
			s.write(w, http.StatusOK, map[string]any{
				"@controls": t.collectionControls(),
				"items":     items,
			})
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var rec T
			if apiErr := s.read(r, &rec); apiErr != nil {
				s.writeError(w, r, apiErr)
				return
			}
			if apiErr := t.check(r, nil, &rec); apiErr != nil {
				s.writeError(w, r, apiErr)
				return
			}
			if !t.insert(rec) {
				s.writeError(w, r, fail(http.StatusConflict, fmt.Sprintf("%s %q already exists", t.title, t.id(&rec))))
				return
			}
			w.Header().Set("Location", t.itemHref(t.id(&rec)))
			w.WriteHeader(http.StatusCreated)
		})

		r.Get("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			rec, ok := t.get(chi.URLParam(r, "id"))
			if !ok {
				s.writeError(w, r, fail(http.StatusNotFound, "no such "+t.title))
				return
			}
			doc, err := document(r, t, &rec)
			if err != nil {
				s.writeError(w, r, fail(http.StatusInternalServerError, err.Error()))
				return
			}
			s.write(w, http.StatusOK, doc)
		})

		r.Put("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			prev, ok := t.get(id)
			if !ok {
				s.writeError(w, r, fail(http.StatusNotFound, "no such "+t.title))
				return
			}
			if !t.owns(r, &prev) {
				s.writeError(w, r, fail(http.StatusForbidden, "only the owner may edit this "+t.title))
				return
			}
			var next T
			if apiErr := s.read(r, &next); apiErr != nil {
				s.writeError(w, r, apiErr)
				return
			}
			if got := t.id(&next); got != id {
				s.writeError(w, r, fail(http.StatusConflict, fmt.Sprintf("%s identity cannot change from %q to %q", t.title, id, got)))
				return
			}
			if apiErr := t.check(r, &prev, &next); apiErr != nil {
				s.writeError(w, r, apiErr)
				return
			}
			t.replace(id, next)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Delete("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			rec, ok := t.get(id)
			if !ok {
				s.writeError(w, r, fail(http.StatusNotFound, "no such "+t.title))
				return
			}
			if !t.owns(r, &rec) {
				s.writeError(w, r, fail(http.StatusForbidden, "only the owner may delete this "+t.title))
				return
			}
			t.remove(id)
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// document renders rec with its item controls next to the payload fields.
func document[T any](r *http.Request, t *table[T], rec *T) (map[string]any, error) {
	data, err := api.Marshal(rec)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := api.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc["@controls"] = t.itemControls(r, rec)
	return doc, nil
}

func (s *Server) read(r *http.Request, dest any) *apiError {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fail(http.StatusBadRequest, "read body: "+err.Error())
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return fail(http.StatusUnsupportedMediaType, "expected a JSON body")
	}
	if err := api.Unmarshal(body, dest); err != nil {
		return fail(http.StatusBadRequest, "malformed JSON body")
	}
	return nil
}

func (s *Server) write(w http.ResponseWriter, status int, doc any) {
	data, err := api.Marshal(doc)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mason.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, e *apiError) {
	if e.Resource == "" {
		e.Resource = r.URL.Path
	}
	s.write(w, e.HTTPStatus, e)
}

func caller(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUser))
}

func checkLength(field, value string, minLen, maxLen int) *apiError {
	n := len([]rune(strings.TrimSpace(value)))
	switch {
	case n < minLen && minLen == 1:
		return fail(http.StatusUnprocessableEntity, field+" required")
	case n < minLen:
		return fail(http.StatusUnprocessableEntity, fmt.Sprintf("%s must be at least %d characters", field, minLen))
	case n > maxLen:
		return fail(http.StatusUnprocessableEntity, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
	return nil
}

func checkUser(_ *http.Request, _, next *model.User) *apiError {
	if e := checkLength("username", next.Username, 1, 60); e != nil {
		return e
	}
	return checkLength("description", next.Description, 0, 250)
}

func checkClub(r *http.Request, prev, next *model.Club) *apiError {
	if e := checkLength("handle", next.Handle, 1, 60); e != nil {
		return e
	}
	if e := checkLength("description", next.Description, 0, 2040); e != nil {
		return e
	}
	if prev != nil {
		next.Owner = prev.Owner
		return nil
	}
	owner := caller(r)
	if owner == "" {
		return fail(http.StatusUnauthorized, HeaderUser+" header required to create a club")
	}
	next.Owner = owner
	return nil
}

func checkBook(_ *http.Request, _, next *model.Book) *apiError {
	if e := checkLength("handle", next.Handle, 1, 60); e != nil {
		return e
	}
	if e := checkLength("full_name", next.Name, 1, 250); e != nil {
		return e
	}
	if next.Pages != nil && (*next.Pages < 0 || *next.Pages > 2000000000) {
		return fail(http.StatusUnprocessableEntity, "pages must be between 0 and 2000000000")
	}
	return nil
}
