package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/bookclub/internal/config"
	"github.com/five82/bookclub/internal/prefs"
	"github.com/five82/bookclub/internal/ui"
)

// Options configure the bookclub application. Non-empty values override the
// config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/bookclub/prefs.toml
	Address    string
	User       string
	Verbose    bool
}

// Run boots the bookclub browser until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	applyOverrides(&cfg, opts, userPrefs)

	logger, logFile, err := openLog(cfg.LogFile, opts.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	registry := newRegistry()
	rt, err := NewRuntime(cfg, logger, registry)
	if err != nil {
		return err
	}
	if cfg.MetricsListen != "" {
		go serveMetrics(ctx, cfg.MetricsListen, registry, logger)
	}

	sections, err := rt.Connect(ctx)
	if err != nil {
		return err
	}

	StartRefresher(ctx, rt.Store, sections, cfg.RefreshInterval, logger)

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    rt.Client,
		Browser:   rt.Browser,
		Workers:   rt.Workers,
		Sections:  sections,
		Store:     rt.Store,
		Logger:    logger,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogFile,
	})
}

// applyOverrides layers flags over the config file; the remembered user
// applies only when neither names one.
func applyOverrides(cfg *config.Config, opts Options, p prefs.Prefs) {
	if addr := strings.TrimSpace(opts.Address); addr != "" {
		cfg.Address = addr
	}
	if user := strings.TrimSpace(opts.User); user != "" {
		cfg.User = user
	}
	if cfg.User == "" {
		cfg.User = p.LastUser
	}
}
