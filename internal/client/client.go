package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/codec"
	"github.com/five82/bookclub/internal/mason"
)

const (
	// DefaultAddress is used when no address is configured.
	DefaultAddress = "http://localhost:8000/"
	// DefaultTimeout bounds each request.
	DefaultTimeout = 10 * time.Second

	// HeaderUser carries the caller identity.
	HeaderUser = "BC-User"
	// HeaderRequestID carries a per-request ULID.
	HeaderRequestID = "X-Request-ID"

	defaultUserAgent = "bookclub/0.1"
	tracerName       = "github.com/five82/bookclub/internal/client"
)

// Config configures a Client. Zero values select defaults.
type Config struct {
	BaseURL    string
	User       string
	Timeout    time.Duration
	UserAgent  string
	Codecs     *codec.Pool
	Workers    *async.Pool
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *Metrics
	Tracer     trace.Tracer
}

// Client talks to one bookclub API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	codecs    *codec.Pool
	workers   *async.Pool
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	mu   sync.RWMutex
	user string
}

// New builds a Client bound to cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:      base,
		http:      cfg.HTTPClient,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		codecs:    cfg.Codecs,
		workers:   cfg.Workers,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		user:      strings.TrimSpace(cfg.User),
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.codecs == nil {
		c.codecs = codec.NewPool(codec.DefaultSize, codec.WithLogger(c.logger))
	}
	if c.workers == nil {
		c.workers = async.NewPool(async.DefaultWorkers, c.logger)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c, nil
}

// Base returns the bootstrap href.
func (c *Client) Base() string { return c.base.String() }

// User returns the caller identity sent with each request.
func (c *Client) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// SetUser changes the caller identity for subsequent requests.
func (c *Client) SetUser(user string) {
	c.mu.Lock()
	c.user = strings.TrimSpace(user)
	c.mu.Unlock()
}

// Codecs returns the codec pool requests decode with.
func (c *Client) Codecs() *codec.Pool { return c.codecs }

// Workers returns the pool async requests run on.
func (c *Client) Workers() *async.Pool { return c.workers }

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Resolve turns a possibly relative href into an absolute URL against the
// base address.
func (c *Client) Resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

type response struct {
	method    string
	url       string
	requestID string
	status    int
	location  string
	body      []byte
}

func (c *Client) exchange(ctx context.Context, method, href string, body []byte) (*response, error) {
	target, err := c.Resolve(href)
	if err != nil {
		return nil, &TransportError{Op: method, URL: href, Kind: KindNetwork, Err: err}
	}
	out := &response{method: method, url: target, requestID: newRequestID()}

	ctx, span := c.tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
		attribute.String("bookclub.request_id", out.requestID),
	)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return nil, &TransportError{Op: method, URL: target, Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", mason.ContentType)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, out.requestID)
	if user := c.User(); user != "" {
		req.Header.Set(HeaderUser, user)
	}
	if body != nil {
		req.Header.Set("Content-Type", mason.ContentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err == nil {
		out.status = resp.StatusCode
		out.body, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if loc := resp.Header.Get("Location"); loc != "" {
			if u, perr := req.URL.Parse(loc); perr == nil {
				out.location = u.String()
			} else {
				out.location = loc
			}
		}
	}
	elapsed := time.Since(start)

	if err != nil {
		kind := classify(ctx, reqCtx, err)
		c.metrics.observe(method, kindOutcome(kind), elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		c.logger.Warn("request failed",
			"method", method,
			"url", target,
			"request_id", out.requestID,
			"kind", kind.String(),
			"error", err,
		)
		return nil, &TransportError{Op: method, URL: target, Kind: kind, Err: err}
	}

	c.metrics.observe(method, statusOutcome(out.status), elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", out.status))
	if out.status >= 400 {
		span.SetStatus(codes.Error, http.StatusText(out.status))
	}
	c.logger.Debug("request",
		"method", method,
		"url", target,
		"request_id", out.requestID,
		"status", out.status,
		"duration", elapsed,
	)
	return out, nil
}

// decodeError extracts the server's structured error. A nil return means the
// body carried nothing recognisable.
func (c *Client) decodeError(ctx context.Context, resp *response) *mason.Error {
	var out *mason.Error
	_ = c.codecs.With(ctx, func(h *codec.Handle) error {
		if e, ok := mason.DecodeError(h, resp.status, resp.body); ok {
			out = e
		}
		return nil
	})
	return out
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func parseBaseURL(address string) (*url.URL, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		trimmed = DefaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", address, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse address %q: missing host", address)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
