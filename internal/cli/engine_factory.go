package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/courier"
	"github.com/aretw0/courier/internal/config"
	"github.com/aretw0/courier/pkg/adapters/file"
	"github.com/aretw0/courier/pkg/adapters/memory"
	redisadapter "github.com/aretw0/courier/pkg/adapters/redis"
	"github.com/aretw0/courier/pkg/completion"
	"github.com/aretw0/courier/pkg/domain"
	"github.com/aretw0/courier/pkg/gateway"
	"github.com/aretw0/courier/pkg/observability"
	"github.com/aretw0/courier/pkg/persistence/middleware"
	"github.com/aretw0/courier/pkg/ports"
	"github.com/aretw0/courier/pkg/registry"
	"github.com/aretw0/courier/pkg/router"
	"github.com/aretw0/courier/pkg/session"
)

// App is a fully wired engine plus the resources it owns.
type App struct {
	Config   config.Config
	Engine   *courier.Engine
	Registry *registry.Registry
	Store    ports.TranscriptStore
	Metrics  *observability.Metrics

	closers []func() error
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	interceptors []registry.Interceptor
	completer    ports.Completer
}

// WithInterceptor adds a tool policy ahead of the configured ones.
func WithInterceptor(i registry.Interceptor) AppOption {
	return func(o *appOptions) {
		o.interceptors = append(o.interceptors, i)
	}
}

// WithCompleter replaces the OpenAI-compatible completion client.
func WithCompleter(c ports.Completer) AppOption {
	return func(o *appOptions) {
		o.completer = c
	}
}

// NewApp wires the engine described by cfg.
func NewApp(cfg config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Metrics: observability.NewMetrics()}

	// 1. Tools & policy
	app.Registry = registry.New(newTools(cfg.Tools, logger),
		registry.WithInterceptor(newPolicy(cfg.Tools, o.interceptors)))

	// 2. Model
	completer := o.completer
	if completer == nil {
		completer = completion.New(cfg.Completion, completion.WithLogger(logger))
	}

	// 3. Persistence
	store, locker, err := app.newStore(cfg.Session)
	if err != nil {
		return nil, err
	}
	app.Store = store

	sessOpts := []session.Option{session.WithLogger(logger), session.WithLockTTL(cfg.LockTTL())}
	if locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(locker))
	}

	// 4. Engine
	engine, err := courier.New(app.Registry, completer,
		courier.WithLogger(logger),
		courier.WithRouter(router.New(
			router.WithFilesystemRoot(cfg.Tools.FSRoot),
			router.WithTimezone(cfg.Tools.Timezone),
			router.WithFetchLength(cfg.Tools.FetchMaxLength),
		)),
		courier.WithSessions(session.NewManager(store, sessOpts...)),
		courier.WithLifecycleHooks(app.Metrics.Hooks().Merge(observability.LogHooks(logger))),
	)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newTools(cfg config.Tools, logger *slog.Logger) []ports.Tool {
	with := func(timeout time.Duration, endpoints []string) []gateway.Option {
		opts := []gateway.Option{gateway.WithLogger(logger)}
		if timeout > 0 {
			opts = append(opts, gateway.WithTimeout(timeout))
		}
		if len(endpoints) > 0 {
			opts = append(opts, gateway.WithEndpoints(resolveEndpoints(cfg.BaseURL, endpoints)...))
		}
		return opts
	}
	return []ports.Tool{
		gateway.NewFetchClient(cfg.BaseURL, with(cfg.FetchTimeout, nil)...),
		gateway.NewTimeClient(cfg.BaseURL, cfg.Timezone, with(cfg.TimeTimeout, cfg.TimeEndpoints)...),
		gateway.NewFilesystemClient(cfg.BaseURL, with(cfg.FilesystemTimeout, cfg.FilesystemEndpoints)...),
	}
}

// resolveEndpoints joins path-only entries such as "/time/now" onto baseURL.
func resolveEndpoints(baseURL string, endpoints []string) []string {
	out := make([]string, len(endpoints))
	for i, ep := range endpoints {
		if strings.HasPrefix(ep, "/") {
			ep = strings.TrimRight(baseURL, "/") + ep
		}
		out[i] = ep
	}
	return out
}

// newPolicy puts extra interceptors first and denies writes unless allowed.
func newPolicy(cfg config.Tools, extra []registry.Interceptor) registry.Interceptor {
	chain := append([]registry.Interceptor{}, extra...)
	if !cfg.AllowWrite {
		chain = append(chain, registry.DenyOperations(domain.OpWriteFile))
	}
	return registry.MultiInterceptor(chain...)
}

func (a *App) newStore(cfg config.Session) (ports.TranscriptStore, ports.DistributedLocker, error) {
	var (
		store  ports.TranscriptStore
		locker ports.DistributedLocker
	)

	switch cfg.Store {
	case config.StoreMemory, "":
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Dir)
	case config.StoreRedis:
		rs, err := redisadapter.NewFromURL(cfg.RedisURL, redisadapter.WithTTL(cfg.TTL))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, rs.Close)
		store = rs
		locker = redisadapter.NewLocker(rs.Client(), rs.Prefix())
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = a.Close()
		return nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, nil
}

// storeMiddleware builds redaction (outermost, sees plaintext) then encryption.
func storeMiddleware(cfg config.Session) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			return nil, fmt.Errorf("session.redact: %w", err)
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("session.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("session.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}
