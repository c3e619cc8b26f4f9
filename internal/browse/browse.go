package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/entity"
	"github.com/five82/bookclub/internal/mason"
)

var (
	// ErrNoRoot means the bootstrap resource was missing or had no controls.
	ErrNoRoot = errors.New("browse: api root unavailable")
	// ErrUnavailable means a followed control yielded no resource.
	ErrUnavailable = errors.New("browse: resource unavailable")
	// ErrNoControl means the resource does not offer the needed control.
	ErrNoControl = errors.New("browse: control not offered")
	// ErrNotEditable means the resource has no edit control.
	ErrNotEditable = fmt.Errorf("%w: not editable", ErrNoControl)
	// ErrNoRecord means a write was asked to send a nil record.
	ErrNoRecord = errors.New("browse: no record to send")
)

// Browser follows controls through the API on behalf of one client.
type Browser struct {
	client *client.Client
	logger *slog.Logger

	mu         sync.Mutex
	loaded     map[string]bool
	generation uint64 // bumped by Reset
}

// New returns a Browser over c. A nil logger uses the client's.
func New(c *client.Client, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = c.Logger()
	}
	return &Browser{client: c, logger: logger, loaded: make(map[string]bool)}
}

// Client returns the underlying transport.
func (b *Browser) Client() *client.Client { return b.client }

// Reset forgets which relations have loaded. The next load of each surfaces
// its add control again, and add controls seen before the reset are
// withdrawn from every section.
func (b *Browser) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.loaded)
	b.generation++
}

// SetUser switches the identity sent with every request and resets, since
// the controls offered depend on who asks.
func (b *Browser) SetUser(user string) {
	b.client.SetUser(user)
	b.Reset()
	b.logger.Debug("identity changed", "user", user)
}

func (b *Browser) currentGeneration() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Root fetches the bootstrap resource and returns its controls.
func (b *Browser) Root(ctx context.Context) (mason.Controls, error) {
	env, err := client.Get(ctx, b.client, b.client.Base(), mason.EnvelopeOf[struct{}]())
	if err != nil {
		return nil, err
	}
	if env == nil || len(env.Controls) == 0 {
		return nil, ErrNoRoot
	}
	return env.Controls, nil
}

// Listing is one loaded collection.
type Listing[T any] struct {
	Relation   string
	Collection *mason.Collection[T]
	// Add is set only on the first successful load of Relation.
	Add *mason.Control

	generation uint64
}

// Load follows ctrl, the control for relation rel, and decodes a collection
// of T.
func Load[T any](ctx context.Context, b *Browser, rel string, ctrl mason.Control) (Listing[T], error) {
	gen := b.currentGeneration()
	col, err := client.Get(ctx, b.client, ctrl.Href, mason.CollectionOf[T]())
	if err != nil {
		return Listing[T]{}, err
	}
	if col == nil {
		return Listing[T]{}, fmt.Errorf("%s: %w", rel, ErrUnavailable)
	}

	out := Listing[T]{Relation: rel, Collection: col, generation: gen}
	b.mu.Lock()
	// A load that straddles a Reset answered for the previous identity.
	first := gen == b.generation && !b.loaded[rel]
	if gen == b.generation {
		b.loaded[rel] = true
	}
	b.mu.Unlock()
	if first {
		if add, ok := col.Control(mason.RelAdd); ok {
			out.Add = &add
		}
	}
	b.logger.Debug("collection loaded", "relation", rel, "items", col.Len(), "first", first)
	return out, nil
}

// Refresh re-reads item through its self control.
func Refresh[T any](ctx context.Context, b *Browser, item mason.Envelope[T]) (mason.Envelope[T], error) {
	self, ok := item.Control(mason.RelSelf)
	if !ok {
		return mason.Envelope[T]{}, fmt.Errorf("%s: %w", mason.RelSelf, ErrNoControl)
	}
	env, err := client.Get(ctx, b.client, self.Href, mason.EnvelopeOf[T]())
	if err != nil {
		return mason.Envelope[T]{}, err
	}
	if env == nil || env.Payload == nil {
		return mason.Envelope[T]{}, fmt.Errorf("%s: %w", self.Href, ErrUnavailable)
	}
	return *env, nil
}

// Edit sends updated through item's edit control. Without one nothing is
// sent and ErrNotEditable is returned.
func Edit[T any](ctx context.Context, b *Browser, item mason.Envelope[T], updated *T) (client.Result, error) {
	ctrl, ok := item.Control(mason.RelEdit)
	if !ok {
		return client.Result{}, ErrNotEditable
	}
	if updated == nil {
		return client.Result{}, ErrNoRecord
	}
	return b.client.Send(ctx, methodOr(ctrl, http.MethodPut), ctrl.Href, updated)
}

// Create sends draft through a collection's add control. A rejected draft
// comes back as Result.Error for the caller to correct and resubmit.
func Create[T any](ctx context.Context, b *Browser, add mason.Control, draft *T) (client.Result, error) {
	if add.Href == "" {
		return client.Result{}, fmt.Errorf("%s: %w", mason.RelAdd, ErrNoControl)
	}
	if draft == nil {
		return client.Result{}, ErrNoRecord
	}
	return b.client.Send(ctx, methodOr(add, http.MethodPost), add.Href, draft)
}

// Delete removes item through its delete control.
func Delete[T any](ctx context.Context, b *Browser, item mason.Envelope[T]) (client.Result, error) {
	ctrl, ok := item.Control(mason.RelDelete)
	if !ok {
		return client.Result{}, fmt.Errorf("%s: %w", mason.RelDelete, ErrNoControl)
	}
	return b.client.Send(ctx, methodOr(ctrl, http.MethodDelete), ctrl.Href, nil)
}

// ClearUnsettable zeroes draft's identity and immutable fields so a copy of
// an existing record can be submitted as a new one.
func ClearUnsettable[T any](draft *T) error {
	return entity.ClearUnsettable(draft)
}

func methodOr(c mason.Control, fallback string) string {
	if c.Method != "" {
		return c.Method
	}
	return fallback
}
