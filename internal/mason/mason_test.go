package mason

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/bookclub/internal/codec"
)

type user struct {
	Username    string `json:"username"`
	Description string `json:"description,omitempty"`
}

func withHandle(t *testing.T, fn func(h *codec.Handle)) {
	t.Helper()
	pool := codec.NewPool(1)
	require.NoError(t, pool.With(context.Background(), func(h *codec.Handle) error {
		fn(h)
		return nil
	}))
}

func TestDecodeCollection_ItemControlsAreIndependent(t *testing.T) {
	body := []byte(`{
  "@controls": {
    "self": {"href": "http://api/users/"},
    "add": {"href": "http://api/users/", "method": "POST", "title": "Add user"}
  },
  "items": [
    {"username": "ann", "@controls": {
      "self": {"href": "http://api/users/ann/"},
      "delete": {"href": "http://api/users/ann/", "method": "DELETE"}
    }},
    {"username": "bob", "@controls": {
      "self": {"href": "http://api/users/bob/"}
    }}
  ]
}`)

	withHandle(t, func(h *codec.Handle) {
		col, err := DecodeCollection[user](h, body)
		require.NoError(t, err)
		require.Equal(t, 2, col.Len())

		assert.True(t, col.Controls.Has(RelAdd))
		assert.Equal(t, "Add user", col.Controls.Label(RelAdd))

		first, second := col.Items[0], col.Items[1]
		assert.Equal(t, "ann", first.Payload.Username)
		assert.ElementsMatch(t, []string{RelDelete, RelSelf}, first.Controls.Known())
		assert.Equal(t, []string{RelSelf}, second.Controls.Known())
		assert.False(t, second.Controls.Has(RelDelete))
		assert.False(t, first.Controls.Has(RelAdd))
		assert.Equal(t, []user{{Username: "ann"}, {Username: "bob"}}, col.Payloads())
	})
}

func TestDecodeCollection_AtItemsAndNulls(t *testing.T) {
	withHandle(t, func(h *codec.Handle) {
		col, err := DecodeCollection[user](h, []byte(`{"@items":[{"username":"x"},null]}`))
		require.NoError(t, err)
		require.Equal(t, 1, col.Len())
		assert.Equal(t, "x", col.Items[0].Payload.Username)
		assert.Nil(t, col.Controls)
	})
}

func TestDecodeCollection_ShapeMismatch(t *testing.T) {
	withHandle(t, func(h *codec.Handle) {
		_, err := DecodeCollection[user](h, []byte(`{"items":[42]}`))
		assert.Error(t, err)
		_, err = DecodeCollection[user](h, []byte(`[1,2,3]`))
		assert.Error(t, err)
	})
}

func TestDecodeEnvelope(t *testing.T) {
	withHandle(t, func(h *codec.Handle) {
		env, err := DecodeEnvelope[user](h, []byte(`{
  "username": "ann",
  "favourite_colour": "teal",
  "@controls": {
    "self": {"href": "/users/ann/"},
    "edit": {"href": "/users/ann/", "method": "PUT", "schema": {"type": "object"}},
    "bc:reviews-by": {"href": "/users/ann/reviews/"}
  }
}`))
		require.NoError(t, err)
		require.True(t, env.HasPayload())
		assert.Equal(t, user{Username: "ann"}, *env.Payload)

		edit, ok := env.Control(RelEdit)
		require.True(t, ok)
		assert.Equal(t, "PUT", edit.Method)
		assert.JSONEq(t, `{"type":"object"}`, string(edit.Schema))

		assert.Equal(t, []string{RelEdit, RelSelf}, env.Controls.Known())
		assert.Equal(t, "/users/ann/reviews/", env.Controls.Href("bc:reviews-by"))
		assert.False(t, KnownRelation("bc:reviews-by"))
	})
}

func TestDecodeEnvelope_EmptyBodies(t *testing.T) {
	withHandle(t, func(h *codec.Handle) {
		for _, body := range []string{"", "  \n", "null"} {
			env, err := DecodeEnvelope[user](h, []byte(body))
			require.NoError(t, err)
			assert.False(t, env.HasPayload(), "body %q", body)
		}
	})
}

func TestControls_NilSafe(t *testing.T) {
	var cs Controls
	assert.False(t, cs.Has(RelSelf))
	assert.Equal(t, "", cs.Href(RelSelf))
	assert.Equal(t, "Books", cs.Label(RelBooks))
	assert.Nil(t, cs.Clone())

	cs = Controls{RelEdit: {Href: ""}}
	assert.False(t, cs.Has(RelEdit), "a control without href cannot be followed")
}

func TestControls_CloneIsIndependent(t *testing.T) {
	cs := Controls{RelSelf: {Href: "/a", Schema: []byte(`{}`)}}
	dup := cs.Clone()
	dup[RelSelf] = Control{Href: "/b"}
	assert.Equal(t, "/a", cs.Href(RelSelf))
}

func TestDecodeError_Variants(t *testing.T) {
	cases := []struct {
		name string
		body string
		want *Error
	}{
		{
			name: "bare",
			body: `{"httpStatusCode":422,"message":"full_name required"}`,
			want: &Error{HTTPStatus: 422, Message: "full_name required"},
		},
		{
			name: "bare with resource",
			body: `{"httpStatusCode":404,"message":"no such book","resource":"/books/x/"}`,
			want: &Error{HTTPStatus: 404, Message: "no such book", Resource: "/books/x/"},
		},
		{
			name: "root wrapped",
			body: `{"@error":{"httpStatusCode":409,"message":"handle taken"}}`,
			want: &Error{HTTPStatus: 409, Message: "handle taken"},
		},
		{
			name: "error wrapped",
			body: `{"error":{"message":"nope"}}`,
			want: &Error{HTTPStatus: 400, Message: "nope"},
		},
		{
			name: "mason style",
			body: `{"@error":"Invalid input","@httpStatusCode":422,"@messages":["pages must be positive"]}`,
			want: &Error{HTTPStatus: 422, Message: "Invalid input", Messages: []string{"pages must be positive"}},
		},
		{
			name: "status only",
			body: `{"httpStatusCode":500}`,
			want: &Error{HTTPStatus: 500},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withHandle(t, func(h *codec.Handle) {
				got, ok := DecodeError(h, 400, []byte(tc.body))
				require.True(t, ok)
				assert.Equal(t, tc.want, got)
			})
		})
	}
}

func TestDecodeError_Unrecognised(t *testing.T) {
	withHandle(t, func(h *codec.Handle) {
		for _, body := range []string{"", "<html>500</html>", `{"detail":"x"}`, `["x"]`, `{not-json`} {
			_, ok := DecodeError(h, 500, []byte(body))
			assert.False(t, ok, "body %q", body)
		}
	})
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "422: full_name required", (&Error{HTTPStatus: 422, Message: "full_name required"}).String())
	assert.Equal(t, "404: gone (/b/)", (&Error{HTTPStatus: 404, Message: "gone", Resource: "/b/"}).String())
	assert.Equal(t, "<nil>", (*Error)(nil).String())
}
