package codec

import "context"

// DecodeFunc turns a response body into a T using a checked-out handle. It is
// the decode strategy callers hand to the transport client.
type DecodeFunc[T any] func(h *Handle, body []byte) (T, error)

// Into returns a DecodeFunc that unmarshals straight into a T.
func Into[T any]() DecodeFunc[T] {
	return func(h *Handle, body []byte) (T, error) {
		var v T
		err := h.Unmarshal(body, &v)
		return v, err
	}
}

// Decode checks out a handle, runs decode over body and releases the handle.
func Decode[T any](ctx context.Context, p *Pool, body []byte, decode DecodeFunc[T]) (T, error) {
	var out T
	err := p.With(ctx, func(h *Handle) error {
		v, err := decode(h, body)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Encode checks out a handle, marshals v and releases the handle.
func Encode(ctx context.Context, p *Pool, v any) ([]byte, error) {
	var out []byte
	err := p.With(ctx, func(h *Handle) error {
		data, err := h.Marshal(v)
		if err != nil {
			return err
		}
		out = data
		return nil
	})
	return out, err
}
