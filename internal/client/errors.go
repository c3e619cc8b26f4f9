package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/five82/bookclub/internal/mason"
)

var (
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("client: transport failure")
	// ErrTimeout matches transport errors caused by the per-request timeout.
	ErrTimeout = errors.New("client: request timed out")
	// ErrCanceled matches transport errors caused by caller cancellation.
	ErrCanceled = errors.New("client: request canceled")
	// ErrEncode matches every *EncodeError.
	ErrEncode = errors.New("client: encode failure")
)

// Kind classifies a transport failure.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "network"
	}
}

// TransportError reports a request that produced no HTTP response.
type TransportError struct {
	Op   string
	URL  string
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.URL, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrCanceled:
		return e.Kind == KindCanceled
	}
	return false
}

// EncodeError reports an entity that could not be serialised. Nothing was
// sent.
type EncodeError struct {
	Type string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Type, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// Result is the outcome of a write. A rejected write is not a Go error: the
// server's structured error, when it sent one, is in Error.
type Result struct {
	Status   int
	Location string
	Error    *mason.Error
}

// OK reports whether the server accepted the write.
func (r Result) OK() bool { return r.Status > 0 && r.Status < 400 }

// Message returns the server's message for a rejected write.
func (r Result) Message() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	if r.OK() {
		return ""
	}
	return fmt.Sprintf("request failed with status %d", r.Status)
}

func classify(parent, reqCtx context.Context, err error) Kind {
	if errors.Is(parent.Err(), context.Canceled) {
		return KindCanceled
	}
	if reqCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
