package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"watersafe/internal/config"
	"watersafe/internal/dataset"
	"watersafe/internal/engine"
	"watersafe/internal/logging"
	"watersafe/internal/mailer"
	"watersafe/internal/metrics"
	"watersafe/internal/publish"
	"watersafe/internal/storage"
)

// App holds the wired components shared by every command.
type App struct {
	Config     *config.Manager
	Logger     *slog.Logger
	Collectors *metrics.Collectors
	Summaries  *metrics.Store
	Store      storage.Store
	Publisher  publish.Publisher
	Mailer     mailer.Mailer
	Loader     *dataset.Loader
	Engine     *engine.Engine
}

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	logOut     io.Writer
}

func loadConfig(path string) (*config.Manager, error) {
	if path == "" {
		return config.NewStaticManager(config.DefaultConfig()), nil
	}
	return config.NewManager(config.ResolvePath(path))
}

func newApp(ctx context.Context, opts options) (*App, error) {
	cfgManager, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := cfgManager.Get()
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := logging.New(opts.logOut, level, opts.logFormat)

	collectors, err := metrics.NewCollectors(nil)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:     cfgManager,
		Logger:     logger,
		Collectors: collectors,
		Summaries:  metrics.NewStore(cfg.Metrics.StoreLimit),
		Publisher:  publish.NewKafka(cfg.Publish, logger),
		Loader:     dataset.NewLoader(cfg.Dataset, logger, collectors),
	}

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
		app.Store = store
	}

	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("mailer: %w", err)
	}
	app.Mailer = mail

	app.Engine = engine.NewEngine(cfg, engine.Deps{
		Logger:     logger,
		Summaries:  app.Summaries,
		Collectors: collectors,
		Store:      app.Store,
		Publisher:  app.Publisher,
		Mailer:     mail,
	})
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
