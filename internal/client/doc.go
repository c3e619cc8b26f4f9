// Package client provides the HTTP transport for the bookclub Mason API.
//
// # Overview
//
// A Client is bound to one base address, created once by the composition
// root and shared by everything that talks to the API. Every request carries:
//
//   - Accept: application/vnd.mason+json
//   - User-Agent: bookclub/0.1
//   - X-Request-ID: a fresh ULID
//   - BC-User: the caller identity, when one is set
//
// Each request runs under its own timeout (10 seconds by default), derived
// from the caller's context so cancelling the caller aborts the exchange.
//
// # Reads
//
// Get is generic over the decoded type and takes the decode strategy as a
// codec.DecodeFunc, usually mason.EnvelopeOf or mason.CollectionOf:
//
//	col, err := client.Get(ctx, c, href, mason.CollectionOf[model.Book]())
//
// A read fails only when the transport fails. An empty body, a failing
// status or a body that does not fit the requested shape are logged and
// reported as a nil result, which callers treat as "resource unavailable".
//
// # Writes
//
// Post, Put and Delete return a Result. A status of 400 or above is not a Go
// error: Result.Error holds the server's structured message so a form can
// show it and let the user try again. Entities that cannot be encoded fail
// with *EncodeError before anything is sent.
//
// # Errors
//
//   - *TransportError: no response. errors.Is matches ErrTransport and, by
//     kind, ErrTimeout or ErrCanceled.
//   - *EncodeError: errors.Is matches ErrEncode.
//
// # Async
//
// GetAsync and the *Async write methods run on the shared async.Pool and
// return futures. Cancelling a future cancels the request.
//
// # Observability
//
// Requests are counted and timed through Metrics (Prometheus), wrapped in an
// OpenTelemetry client span and logged through log/slog at debug level.
// Failures log at warn.
package client
