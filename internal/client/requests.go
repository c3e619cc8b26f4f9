package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/codec"
)

// Get fetches href and decodes the body with decode.
//
// Only transport failures are errors. A missing resource is a nil result
// with a nil error: an empty body, a body decode cannot read (logged at
// warn) and a failing status (logged with the server's message) all count
// as missing.
func Get[T any](ctx context.Context, c *Client, href string, decode codec.DecodeFunc[T]) (*T, error) {
	resp, err := c.exchange(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		attrs := []any{"url", resp.url, "status", resp.status, "request_id", resp.requestID}
		if e := c.decodeError(ctx, resp); e != nil {
			attrs = append(attrs, "message", e.Message)
		}
		c.logger.Warn("resource unavailable", attrs...)
		return nil, nil
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil, nil
	}

	v, err := codec.Decode(ctx, c.codecs, resp.body, decode)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TransportError{Op: http.MethodGet, URL: resp.url, Kind: classify(ctx, ctx, ctx.Err()), Err: err}
		}
		c.logger.Warn("decode response",
			"url", resp.url,
			"request_id", resp.requestID,
			"type", fmt.Sprintf("%T", *new(T)),
			"error", err,
		)
		return nil, nil
	}
	return &v, nil
}

// GetAsync runs Get on the client's worker pool. Cancelling the future
// aborts the request.
func GetAsync[T any](ctx context.Context, c *Client, href string, decode codec.DecodeFunc[T]) *async.Future[*T] {
	return async.Go(c.workers, ctx, func(ctx context.Context) (*T, error) {
		return Get(ctx, c, href, decode)
	})
}

// Post sends entity to href.
func (c *Client) Post(ctx context.Context, href string, entity any) (Result, error) {
	return c.write(ctx, http.MethodPost, href, entity)
}

// Put replaces the resource at href with entity.
func (c *Client) Put(ctx context.Context, href string, entity any) (Result, error) {
	return c.write(ctx, http.MethodPut, href, entity)
}

// Delete removes the resource at href.
func (c *Client) Delete(ctx context.Context, href string) (Result, error) {
	return c.write(ctx, http.MethodDelete, href, nil)
}

// PostAsync runs Post on the client's worker pool.
func (c *Client) PostAsync(ctx context.Context, href string, entity any) *async.Future[Result] {
	return async.Go(c.workers, ctx, func(ctx context.Context) (Result, error) {
		return c.Post(ctx, href, entity)
	})
}

// PutAsync runs Put on the client's worker pool.
func (c *Client) PutAsync(ctx context.Context, href string, entity any) *async.Future[Result] {
	return async.Go(c.workers, ctx, func(ctx context.Context) (Result, error) {
		return c.Put(ctx, href, entity)
	})
}

// DeleteAsync runs Delete on the client's worker pool.
func (c *Client) DeleteAsync(ctx context.Context, href string) *async.Future[Result] {
	return async.Go(c.workers, ctx, func(ctx context.Context) (Result, error) {
		return c.Delete(ctx, href)
	})
}

// Send writes entity to href with an arbitrary method, as a control
// declares it. A nil entity sends no body.
func (c *Client) Send(ctx context.Context, method, href string, entity any) (Result, error) {
	return c.write(ctx, strings.ToUpper(strings.TrimSpace(method)), href, entity)
}

func (c *Client) write(ctx context.Context, method, href string, entity any) (Result, error) {
	var body []byte
	if entity != nil {
		data, err := codec.Encode(ctx, c.codecs, entity)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, &TransportError{Op: method, URL: href, Kind: classify(ctx, ctx, ctx.Err()), Err: err}
			}
			return Result{}, &EncodeError{Type: fmt.Sprintf("%T", entity), Err: err}
		}
		body = data
	}

	resp, err := c.exchange(ctx, method, href, body)
	if err != nil {
		return Result{}, err
	}
	if resp.status < 400 {
		return Result{Status: resp.status, Location: resp.location}, nil
	}

	res := Result{Status: resp.status, Error: c.decodeError(ctx, resp)}
	c.logger.Info("write rejected",
		"method", method,
		"url", resp.url,
		"request_id", resp.requestID,
		"status", res.Status,
		"message", res.Message(),
	)
	return res, nil
}
