// Package app provides the application context and dependency management
// for the gamemeta CLI: configuration, logging, provider construction and
// the lifecycle of the optional metrics endpoint.
package app

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/gamemeta/internal/metrics"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/sources"

	// Provider implementations register themselves on import.
	_ "github.com/agentstation/gamemeta/internal/sources/providers"
)

// App represents the gamemeta application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// sources replaces the registry, for tests.
	sources *sources.Set
	// out replaces stdout and stderr of the commands.
	out io.Writer

	mu            sync.Mutex
	metricsServer *http.Server
}

// New creates a new App instance with the given version information.
// The app is initialized with the loaded configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Sources builds the providers of ids from the configured credentials.
func (a *App) Sources(ids []sources.ID) (*sources.Set, error) {
	if a.sources != nil {
		set := sources.NewSet()
		for _, id := range ids {
			if p, ok := a.sources.Get(id); ok {
				set.Set(id, p)
			}
		}
		return set, nil
	}
	return registry.Build(ids, a.config.ProviderConfigs())
}

// Source builds a single provider.
func (a *App) Source(id sources.ID) (sources.Provider, error) {
	if a.sources != nil {
		if p, ok := a.sources.Get(id); ok {
			return p, nil
		}
		return nil, errors.NewNotFoundError("source", id.String())
	}
	return registry.New(id, a.config.ProviderConfigs()[id])
}

// ServeMetrics starts the Prometheus endpoint on addr. It runs until Shutdown.
func (a *App) ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: constants.MetricsReadTimeout,
	}

	a.mu.Lock()
	a.metricsServer = server
	a.mu.Unlock()

	go func() {
		a.logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.metricsServer
	a.metricsServer = nil
	a.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSources replaces the provider registry with a fixed set.
func WithSources(set *sources.Set) Option {
	return func(a *App) error {
		a.sources = set
		return nil
	}
}

// WithOutput redirects command output to w.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
