package mockapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, srv http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(HeaderUser, user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/vnd.mason+json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRootLinksCollections(t *testing.T) {
	srv := New(nil)
	for _, path := range []string{"/", "/api/"} {
		rec := do(t, srv, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/vnd.mason+json", rec.Header().Get("Content-Type"))
		for _, rel := range []string{"bc:users-all", "bc:clubs-all", "bc:books-all"} {
			assert.Contains(t, rec.Body.String(), `"`+rel+`"`, path)
		}
	}
}

func TestBookLifecycle(t *testing.T) {
	srv := New(nil)

	rec := do(t, srv, http.MethodPost, "/api/books/", "ann", `{"handle":"dune"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"httpStatusCode":422,"message":"full_name required","resource":"/api/books/"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/books/", "ann", `{"handle":"dune","full_name":"Dune"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/books/dune/", rec.Header().Get("Location"))

	rec = do(t, srv, http.MethodPost, "/api/books/", "ann", `{"handle":"dune","full_name":"Dune"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/books/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"full_name":"Dune"`)
	assert.Contains(t, rec.Body.String(), `"href":"/api/books/dune/"`)

	rec = do(t, srv, http.MethodPut, "/api/books/dune/", "ann", `{"handle":"dune","full_name":"Dune Messiah"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodPut, "/api/books/dune/", "ann", `{"handle":"other","full_name":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/books/dune/", "", "")
	assert.Contains(t, rec.Body.String(), "Dune Messiah")

	rec = do(t, srv, http.MethodDelete, "/api/books/dune/", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/books/dune/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClubOwnership(t *testing.T) {
	srv := New(nil)

	rec := do(t, srv, http.MethodPost, "/api/clubs/", "", `{"handle":"scifi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/clubs/", "ann", `{"handle":"scifi","owner":"mallory"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/clubs/scifi/", "ann", "")
	assert.Contains(t, rec.Body.String(), `"owner":"ann"`)
	assert.Contains(t, rec.Body.String(), `"edit"`)

	rec = do(t, srv, http.MethodGet, "/api/clubs/scifi/", "bob", "")
	assert.NotContains(t, rec.Body.String(), `"edit"`)
	assert.NotContains(t, rec.Body.String(), `"delete"`)

	rec = do(t, srv, http.MethodDelete, "/api/clubs/scifi/", "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/clubs/scifi/", "ann", `{"handle":"scifi","owner":"bob","description":"new"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/clubs/scifi/", "ann", "")
	assert.Contains(t, rec.Body.String(), `"owner":"ann"`, "owner is fixed at creation")
}

func TestMalformedBody(t *testing.T) {
	srv := New(nil)
	rec := do(t, srv, http.MethodPost, "/api/users/", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
