package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Iron-Ham/chessbook/internal/config"
	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/metrics"
	"github.com/Iron-Ham/chessbook/internal/services"
	"github.com/Iron-Ham/chessbook/internal/store"
)

// deps are the collaborators shared by the commands.
type deps struct {
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	services *services.Client
}

// loadDeps reads the configuration and builds the shared collaborators.
// With fileLogs set, logs go to the config directory when no log dir is
// configured, so they never draw over the TUI.
func loadDeps(fileLogs bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging, fileLogs)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	return &deps{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		services: services.New(services.Options{
			BaseURL:           cfg.Services.BaseURL,
			Timeout:           cfg.Services.Timeout(),
			RequestsPerSecond: cfg.Services.RequestsPerSecond,
			CacheTTL:          cfg.Services.RecognitionCacheTTL(),
			Logger:            logger,
			Metrics:           m,
		}),
	}, nil
}

func newLogger(cfg config.LoggingConfig, fileLogs bool) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Dir
	if dir == "" && fileLogs {
		dir = filepath.Join(config.ConfigDir(), "logs")
	}
	logger, err := logging.NewLogger(logging.Options{
		Dir:        dir,
		Level:      cfg.Level,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func (d *deps) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, d.cfg.Storage, d.services, d.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", d.cfg.Storage.Backend, err)
	}
	return st, nil
}

// serveMetrics exposes /metrics when an address is configured.
func (d *deps) serveMetrics(ctx context.Context) {
	addr := d.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	go func() {
		if err := d.metrics.Serve(ctx, addr); err != nil {
			d.logger.Warn("metrics endpoint stopped", "addr", addr, "error", err.Error())
		}
	}()
}

func (d *deps) Close() {
	_ = d.logger.Close()
}

// settingsFrom maps the configuration onto the reducer's tunables.
func settingsFrom(cfg *config.Config) core.Settings {
	s := core.DefaultSettings()
	s.MinConfidence = cfg.Recognition.MinConfidence
	s.ContinuationBudget = cfg.Analysis.ContinuationBudget
	s.StatusPollInterval = cfg.Board.StatusPoll()
	s.BoardPollInterval = cfg.Board.FenPoll()
	return s
}
