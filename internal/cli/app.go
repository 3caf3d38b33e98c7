package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/idilsaglam/shoplist/internal/config"
	"github.com/idilsaglam/shoplist/internal/logging"
	"github.com/idilsaglam/shoplist/internal/mediator"
	"github.com/idilsaglam/shoplist/internal/store/sqlstore"
	"github.com/idilsaglam/shoplist/internal/ui"
)

// app is everything a subcommand needs, opened once per invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqlstore.Store
	closeLog func() error
}

func openApp(ctx context.Context, opt Options) (*app, error) {
	path, explicit := config.Path(opt.ConfigPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if opt.DBPath != "" {
		cfg.Database.Path = opt.DBPath
	}
	ui.SetTheme(cfg.UI.Theme)

	logger, closeLog, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{cfg: cfg, logger: logger, store: store, closeLog: closeLog}, nil
}

// mediator starts a worker pool sized from config. onError may be nil.
func (a *app) mediator(onError func(error)) *mediator.Mediator {
	return mediator.New(a.store,
		mediator.WithWorkers(a.cfg.Mediator.Workers),
		mediator.WithQueueSize(a.cfg.Mediator.QueueSize),
		mediator.WithErrorHandler(onError),
		mediator.WithLogger(a.logger),
	)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing store", "err", err)
	}
	a.closeLog()
}
