package codec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bytedance/sonic"
)

// DefaultSize is the number of handles a pool holds when NewPool is given a
// non-positive size.
const DefaultSize = 10

var frozen = sonic.Config{
	EscapeHTML:     true,
	SortMapKeys:    true,
	CopyString:     true,
	ValidateString: true,
}.Froze()

// Handle is a checked-out codec. It is not safe for concurrent use.
type Handle struct {
	id  int
	api sonic.API
	buf bytes.Buffer
	out atomic.Bool
}

// ID identifies the handle within its pool.
func (h *Handle) ID() int { return h.id }

// Marshal encodes v using the handle's scratch buffer. The returned slice is
// owned by the caller.
func (h *Handle) Marshal(v any) ([]byte, error) {
	h.buf.Reset()
	if err := h.api.NewEncoder(&h.buf).Encode(v); err != nil {
		return nil, err
	}
	data := bytes.TrimSuffix(h.buf.Bytes(), []byte("\n"))
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Unmarshal decodes data into v.
func (h *Handle) Unmarshal(data []byte, v any) error {
	return h.api.Unmarshal(data, v)
}

// Valid reports whether data is a syntactically valid JSON document.
func (h *Handle) Valid(data []byte) bool {
	return h.api.Valid(data)
}

// Pool hands out a fixed number of handles.
type Pool struct {
	handles chan *Handle
	size    int
	inUse   atomic.Int64
	ready   chan struct{}
	logger  *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for population messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a pool of size handles and starts populating it in the
// background.
func NewPool(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{
		handles: make(chan *Handle, size),
		size:    size,
		ready:   make(chan struct{}),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.populate()
	return p
}

func (p *Pool) populate() {
	for i := 0; i < p.size; i++ {
		p.handles <- &Handle{id: i, api: frozen}
	}
	close(p.ready)
	p.logger.Debug("codec pool populated", "size", p.size)
}

// Acquire checks a handle out, blocking until one is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("codec: acquire: %w", err)
	}
	select {
	case h := <-p.handles:
		h.out.Store(true)
		p.inUse.Add(1)
		return h, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("codec: acquire: %w", ctx.Err())
	}
}

// Release returns h to the pool. Nil handles and repeated releases of the
// same checkout are ignored.
func (p *Pool) Release(h *Handle) {
	if h == nil || !h.out.CompareAndSwap(true, false) {
		return
	}
	h.buf.Reset()
	p.inUse.Add(-1)
	p.handles <- h
}

// With runs fn with a checked-out handle and releases it afterwards, even if
// fn panics.
func (p *Pool) With(ctx context.Context, fn func(*Handle) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(h)
	return fn(h)
}

// Size returns the pool capacity.
func (p *Pool) Size() int { return p.size }

// InUse returns the number of handles currently checked out.
func (p *Pool) InUse() int { return int(p.inUse.Load()) }

// Available returns the number of handles waiting in the pool.
func (p *Pool) Available() int { return len(p.handles) }

// Ready is closed once every handle has been created.
func (p *Pool) Ready() <-chan struct{} { return p.ready }
