package mason

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/five82/bookclub/internal/codec"
)

// Error is the structured error a server returns with a failing status. It is
// protocol data, not a Go error: a rejected write is a normal outcome the
// caller branches on.
type Error struct {
	HTTPStatus int      `json:"httpStatusCode"`
	Message    string   `json:"message"`
	Resource   string   `json:"resource,omitempty"`
	Messages   []string `json:"messages,omitempty"`
}

func (e *Error) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.Resource != "" {
		return fmt.Sprintf("%d: %s (%s)", e.HTTPStatus, e.Message, e.Resource)
	}
	return fmt.Sprintf("%d: %s", e.HTTPStatus, e.Message)
}

type errorWire struct {
	HTTPStatus   *int            `json:"httpStatusCode"`
	AtHTTPStatus *int            `json:"@httpStatusCode"`
	Message      string          `json:"message"`
	AtMessage    string          `json:"@message"`
	Resource     string          `json:"resource"`
	Messages     []string        `json:"@messages"`
	Wrapped      json.RawMessage `json:"@error"`
	Plain        json.RawMessage `json:"error"`
}

// DecodeError extracts a structured error from a failing response body. The
// body may be the bare record, the record wrapped under "@error" or "error",
// or the Mason form where "@error" holds the message string. status fills in
// a missing status code. ok is false when nothing recognisable was found.
func DecodeError(h *codec.Handle, status int, body []byte) (*Error, bool) {
	return decodeError(h, status, bytes.TrimSpace(body), true)
}

func decodeError(h *codec.Handle, status int, body []byte, unwrap bool) (*Error, bool) {
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}
	var wire errorWire
	if err := h.Unmarshal(body, &wire); err != nil {
		return nil, false
	}

	out := &Error{
		Message:  firstNonEmpty(wire.Message, wire.AtMessage),
		Resource: wire.Resource,
		Messages: wire.Messages,
	}
	for _, inner := range []json.RawMessage{wire.Wrapped, wire.Plain} {
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 {
			continue
		}
		switch inner[0] {
		case '{':
			if unwrap {
				if nested, ok := decodeError(h, status, inner, false); ok {
					return nested, true
				}
			}
		case '"':
			var msg string
			if err := h.Unmarshal(inner, &msg); err == nil && out.Message == "" {
				out.Message = msg
			}
		}
	}
	if out.Message == "" && len(out.Messages) > 0 {
		out.Message = out.Messages[0]
	}

	switch {
	case wire.HTTPStatus != nil:
		out.HTTPStatus = *wire.HTTPStatus
	case wire.AtHTTPStatus != nil:
		out.HTTPStatus = *wire.AtHTTPStatus
	default:
		if out.Message == "" {
			return nil, false
		}
		out.HTTPStatus = status
	}
	return out, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
