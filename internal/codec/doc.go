// Package codec owns the process-wide pool of JSON codec handles.
//
// # Overview
//
// Every request the client makes encodes or decodes JSON exactly once. Rather
// than building a fresh encoder per call, the client checks a Handle out of a
// fixed-size Pool, uses it for a single operation and hands it back. A Handle
// carries a frozen sonic configuration and a scratch buffer that is reused
// across checkouts.
//
// # Checkout discipline
//
// A checked-out handle belongs to exactly one goroutine until it is released.
// Release must run on every exit path, so callers either pair Acquire with a
// deferred Release or use Pool.With, which does that for them:
//
//	err := pool.With(ctx, func(h *codec.Handle) error {
//		return h.Unmarshal(body, &dest)
//	})
//
// Releasing the same checkout twice is a no-op. Acquire blocks while every
// handle is out and returns the context error if ctx ends first.
//
// # Population
//
// NewPool returns immediately and fills the pool from a background goroutine.
// Acquire waits on the pool channel itself, so early callers block until the
// first handle lands instead of observing an empty pool. Ready reports when
// population has finished.
//
// # Configuration
//
// All handles share one configuration, fixed when the package is loaded:
//
//   - unknown object members are skipped (the server may add fields)
//   - absent members leave the destination untouched (nil pointers stay nil)
//   - map keys are sorted on output so request bodies are deterministic
//   - HTML characters are escaped on output, matching encoding/json
package codec
