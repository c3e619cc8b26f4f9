package mason

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/five82/bookclub/internal/codec"
)

// Envelope is a decoded resource: an optional payload and the controls that
// say what can be done with it.
type Envelope[T any] struct {
	Payload  *T
	Controls Controls
}

// HasPayload reports whether the envelope carries a payload.
func (e Envelope[T]) HasPayload() bool { return e.Payload != nil }

// Control returns the control for rel.
func (e Envelope[T]) Control(rel string) (Control, bool) { return e.Controls.Get(rel) }

// Collection is a listing resource. Its controls (add, self) are independent
// of the controls each item carries (self, edit, delete).
type Collection[T any] struct {
	Controls Controls
	Items    []Envelope[T]
}

// Control returns the collection-level control for rel.
func (c Collection[T]) Control(rel string) (Control, bool) { return c.Controls.Get(rel) }

// Len returns the number of items.
func (c Collection[T]) Len() int { return len(c.Items) }

// Payloads returns the present item payloads in order.
func (c Collection[T]) Payloads() []T {
	out := make([]T, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Payload != nil {
			out = append(out, *item.Payload)
		}
	}
	return out
}

type controlsOnly struct {
	Controls Controls `json:"@controls"`
}

type collectionWire struct {
	Controls Controls          `json:"@controls"`
	Items    []json.RawMessage `json:"items"`
	AtItems  []json.RawMessage `json:"@items"`
}

var null = []byte("null")

// DecodeEnvelope decodes a single resource. Payload fields live next to
// @controls in the same object.
func DecodeEnvelope[T any](h *codec.Handle, body []byte) (Envelope[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, null) {
		return Envelope[T]{}, nil
	}
	var meta controlsOnly
	if err := h.Unmarshal(body, &meta); err != nil {
		return Envelope[T]{}, fmt.Errorf("decode controls: %w", err)
	}
	payload := new(T)
	if err := h.Unmarshal(body, payload); err != nil {
		return Envelope[T]{}, fmt.Errorf("decode payload: %w", err)
	}
	return Envelope[T]{Payload: payload, Controls: meta.Controls}, nil
}

// DecodeCollection decodes a listing. Items are read from "items", falling
// back to "@items". Null items are dropped.
func DecodeCollection[T any](h *codec.Handle, body []byte) (Collection[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, null) {
		return Collection[T]{}, nil
	}
	var wire collectionWire
	if err := h.Unmarshal(body, &wire); err != nil {
		return Collection[T]{}, fmt.Errorf("decode collection: %w", err)
	}
	raw := wire.Items
	if raw == nil {
		raw = wire.AtItems
	}
	out := Collection[T]{Controls: wire.Controls, Items: make([]Envelope[T], 0, len(raw))}
	for i, item := range raw {
		env, err := DecodeEnvelope[T](h, item)
		if err != nil {
			return Collection[T]{}, fmt.Errorf("decode item %d: %w", i, err)
		}
		if env.Payload == nil {
			continue
		}
		out.Items = append(out.Items, env)
	}
	return out, nil
}

// EnvelopeOf returns the decode strategy for a single T resource.
func EnvelopeOf[T any]() codec.DecodeFunc[Envelope[T]] {
	return DecodeEnvelope[T]
}

// CollectionOf returns the decode strategy for a listing of T.
func CollectionOf[T any]() codec.DecodeFunc[Collection[T]] {
	return DecodeCollection[T]
}
