package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/engine"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	config *Config

	holder     *registry.Holder
	store      datastore.Store
	closeStore func() error
	engine     *engine.Engine

	httpServer *http.Server
	wg         sync.WaitGroup
}

// Option customizes NewApp; mostly for tests and embedders.
type Option func(*options)

type options struct {
	modules []formula.Module
	store   datastore.Store
	intents query.IntentResolver
}

// WithModules replaces the compiled-in formula function modules.
func WithModules(modules ...formula.Module) Option {
	return func(o *options) { o.modules = modules }
}

// WithStore uses store instead of the one described by the data config.
func WithStore(store datastore.Store) Option {
	return func(o *options) { o.store = store }
}

// WithIntentResolver enables free-text questions.
func WithIntentResolver(r query.IntentResolver) Option {
	return func(o *options) { o.intents = r }
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	return newLogger(cfg.Level, cfg.Format, w)
}

// LoadRegistry loads and validates the registry described by cfg without
// connecting any data store.
func LoadRegistry(ctx context.Context, cfg RegistryConfig, modules ...formula.Module) (*registry.Snapshot, error) {
	return registry.Load(ctx, newFunctions(modules), registryLoaders(), cfg.Paths...)
}

func newFunctions(modules []formula.Module) *formula.Functions {
	if len(modules) == 0 {
		modules = coreModules
	}
	return formula.NewFunctions(modules...)
}

// NewApp is the constructor for the main application. It loads the
// registry and connects the data store; the returned App owns both until
// Close.
func NewApp(ctx context.Context, logW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	source := registry.FileSource(newFunctions(o.modules), registryLoaders(), cfg.Registry.Paths...)
	snap, err := source(ctx)
	if err != nil {
		return nil, err
	}

	store, closeStore := o.store, func() error { return nil }
	if store == nil {
		store, closeStore, err = openStore(ctx, cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to open data store: %w", err)
		}
	}

	holder := registry.NewHolder(snap, source)
	ctx, cancel := context.WithCancel(ctx)
	return &App{
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		config:     cfg,
		holder:     holder,
		store:      store,
		closeStore: closeStore,
		engine: engine.New(holder, store, engine.Options{
			Prefetch:    cfg.Fetch.Prefetch,
			Concurrency: cfg.Fetch.Concurrency,
			Intents:     o.intents,
		}),
	}, nil
}

// Start launches the background services enabled by the configuration:
// the health check server and the registry watcher.
func (a *App) Start() {
	if a.config.Healthcheck.Port > 0 {
		a.startHealthcheckServer(a.config.Healthcheck.Port)
	}
	if a.config.Registry.Watch {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			err := registry.Watch(a.ctx, a.holder, registry.DefaultDebounce, a.config.Registry.Paths...)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Registry watcher stopped.", "error", err)
			}
		}()
	}
}

// Answer evaluates one query.
func (a *App) Answer(ctx context.Context, q query.ResolvedQuery) (*engine.Result, error) {
	return a.engine.Answer(ctxlog.WithLogger(ctx, a.logger), q)
}

// AnswerText evaluates one free-text question.
func (a *App) AnswerText(ctx context.Context, text string) (*engine.Result, error) {
	return a.engine.AnswerText(ctxlog.WithLogger(ctx, a.logger), text)
}

// Reload rebuilds the registry from its files.
func (a *App) Reload(ctx context.Context) error {
	return a.holder.Reload(ctxlog.WithLogger(ctx, a.logger))
}

// Registry returns the current registry snapshot.
func (a *App) Registry() *registry.Snapshot {
	return a.holder.Current()
}

// Close stops background services and releases the data store.
func (a *App) Close() error {
	a.cancel()
	err := a.closeHealthcheckServer()
	a.wg.Wait()
	return errors.Join(err, a.closeStore())
}
