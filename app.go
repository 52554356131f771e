// Package dashkit assembles the dashboard runtime from a configuration:
// the backend client, image storage, session signing and the HTTP gateway.
//
//	cfg, _ := config.Load("")
//	app, err := dashkit.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, board, _ := app.Mount(context.Background(), session.Identity{UserID: "p1"})
//	defer board.Close()
//	board.Zones.Fetch(ctx)
package dashkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/vango-dev/dashkit/internal/config"
	"github.com/vango-dev/dashkit/internal/gateway"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/dashboard"
	"github.com/vango-dev/dashkit/pkg/middleware"
	"github.com/vango-dev/dashkit/pkg/upload"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// App holds the long-lived pieces shared by every mounted dashboard.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *middleware.Metrics
	sessions *session.Manager
	uploader upload.Uploader
	limits   *upload.Config
	tracing  bool
}

// Option configures an App.
type Option func(*App)

// WithLogger overrides the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithRegistry registers client metrics with r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithUploader replaces the configured upload backend.
func WithUploader(u upload.Uploader) Option {
	return func(a *App) { a.uploader = u }
}

// WithTracing wraps the backend client with OpenTelemetry spans using the
// global tracer provider.
func WithTracing() Option {
	return func(a *App) { a.tracing = true }
}

// New validates cfg and builds an App.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dashkit: invalid config: %w", err)
	}

	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = cfg.Logger(os.Stderr)
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = middleware.NewMetrics(middleware.WithRegistry(a.registry))

	sessOpts := []session.Option{
		session.WithTTL(cfg.Session.TTL.Std()),
		session.WithCookieName(cfg.Session.CookieName),
		session.WithSecureCookies(cfg.Session.Secure),
	}
	if cfg.Session.Issuer != "" {
		sessOpts = append(sessOpts, session.WithIssuer(cfg.Session.Issuer))
	}
	a.sessions = session.New([]byte(cfg.Session.Secret), sessOpts...)

	a.limits = &upload.Config{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}
	if len(a.limits.AllowedTypes) == 0 {
		a.limits.AllowedTypes = upload.DefaultConfig().AllowedTypes
	}
	if a.uploader == nil {
		u, err := NewUploader(cfg.Upload, a.logger)
		if err != nil {
			return nil, err
		}
		a.uploader = u
	}
	return a, nil
}

// NewUploader builds the storage backend named by cfg.Backend. An empty
// backend returns a nil Uploader; gallery uploads then fail as a
// precondition.
func NewUploader(cfg config.UploadConfig, logger *slog.Logger) (upload.Uploader, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "http":
		return upload.NewHTTPStore(cfg.Endpoint,
			upload.WithField(cfg.Field),
			upload.WithMaxSize(cfg.MaxFileSize),
			upload.WithCredential(upload.Credential{
				Bearer:   cfg.Bearer,
				Username: cfg.Username,
				Password: cfg.Password,
			}),
			upload.WithLogger(logger),
		), nil
	case "s3":
		client := upload.NewS3Client(upload.S3Config{
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
		})
		store := upload.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix, cfg.MaxFileSize)
		if cfg.S3.PublicBaseURL != "" {
			store = store.WithPublicBaseURL(cfg.S3.PublicBaseURL)
		}
		return store, nil
	case "disk":
		return upload.NewDiskStore(cfg.Dir, cfg.BaseURL, cfg.MaxFileSize)
	default:
		return nil, fmt.Errorf("dashkit: unknown upload backend %q", cfg.Backend)
	}
}

// Config returns the configuration.
func (a *App) Config() *config.Config { return a.config }

// Logger returns the logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Registry returns the metrics registry.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Client builds a backend client. An empty token uses the configured one.
func (a *App) Client(token string) (*api.Client, error) {
	cfg := a.config.API
	if token == "" {
		token = cfg.Token
	}
	mws := []api.Middleware{a.metrics.Transport()}
	if a.tracing {
		mws = append(mws, middleware.OpenTelemetry())
	}
	opts := []api.Option{
		api.WithTimeout(cfg.Timeout.Std()),
		api.WithLogger(a.logger),
		api.WithUserAgent("dashkit/" + Version),
		api.WithMiddleware(mws...),
	}
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, api.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}
	return api.New(cfg.BaseURL, opts...)
}

// Deps returns the dashboard dependencies for id.
func (a *App) Deps(id session.Identity) (dashboard.Deps, error) {
	client, err := a.Client("")
	if err != nil {
		return dashboard.Deps{}, err
	}
	return dashboard.Deps{
		Client:    client,
		Identity:  id,
		Uploader:  a.uploader,
		Upload:    a.limits,
		StaleTime: a.config.Server.StaleTime.Std(),
		Logger:    a.logger,
	}, nil
}

// Mount creates a dashboard for id under parent. Close the dashboard when
// done.
func (a *App) Mount(parent context.Context, id session.Identity) (context.Context, *dashboard.Dashboard, error) {
	deps, err := a.Deps(id)
	if err != nil {
		return nil, nil, err
	}
	ctx, board := dashboard.Mount(parent, deps)
	return ctx, board, nil
}

// Gateway builds the HTTP gateway.
func (a *App) Gateway() (*gateway.Gateway, error) {
	if a.config.Session.Secret == "" {
		return nil, fmt.Errorf("dashkit: %w (DASHKIT_SESSION_SECRET)", session.ErrNoSecret)
	}
	srv := a.config.Server
	return gateway.New(gateway.Options{
		Sessions:       a.sessions,
		Mount:          a.Mount,
		Gatherer:       a.registry,
		Metrics:        a.metrics,
		Upload:         a.limits,
		DevLogin:       a.config.Session.DevLogin,
		IdleTimeout:    srv.IdleTimeout.Std(),
		AllowedOrigins: srv.AllowedOrigins,
		Addr:           srv.Addr,
		ReadTimeout:    srv.ReadTimeout.Std(),
		WriteTimeout:   srv.WriteTimeout.Std(),
		Logger:         a.logger,
	}), nil
}

// Serve runs the gateway until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	gw, err := a.Gateway()
	if err != nil {
		return err
	}
	if err := gw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
