package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/codec"
	"github.com/five82/bookclub/internal/config"
	"github.com/five82/bookclub/internal/model"
	"github.com/five82/bookclub/internal/state"
)

// Runtime owns the process-wide pieces: one codec pool, one worker pool and
// one client bound to one base address.
type Runtime struct {
	Config  config.Config
	Logger  *slog.Logger
	Codecs  *codec.Pool
	Workers *async.Pool
	Metrics *client.Metrics
	Client  *client.Client
	Browser *browse.Browser
	Store   *state.Store
}

// NewRuntime validates the record declarations and builds the runtime.
// A nil registerer leaves metrics unregistered.
func NewRuntime(cfg config.Config, logger *slog.Logger, registerer prometheus.Registerer) (*Runtime, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("record metadata: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	codecs := codec.NewPool(cfg.CodecPoolSize, codec.WithLogger(logger))
	workers := async.NewPool(cfg.Workers, logger)

	var metrics *client.Metrics
	if registerer != nil {
		metrics = client.NewMetrics(registerer, codecs)
		if err := metrics.Register(); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	c, err := client.New(client.Config{
		BaseURL: cfg.Address,
		User:    cfg.User,
		Timeout: cfg.Timeout,
		Codecs:  codecs,
		Workers: workers,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init bookclub client: %w", err)
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Codecs:  codecs,
		Workers: workers,
		Metrics: metrics,
		Client:  c,
		Browser: browse.New(c, logger),
		Store:   &state.Store{},
	}, nil
}

// Connect fetches the API root and binds the collections it links to.
func (r *Runtime) Connect(ctx context.Context) ([]browse.Section, error) {
	root, err := r.Browser.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookclub api at %s: %w", r.Client.Base(), err)
	}
	sections, err := browse.DefaultSections(r.Browser, root)
	if err != nil {
		return nil, fmt.Errorf("bookclub api at %s: %w", r.Client.Base(), err)
	}
	r.Logger.Info("connected", "base", r.Client.Base(), "sections", len(sections))
	return sections, nil
}
