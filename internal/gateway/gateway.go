package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/dashboard"
	"github.com/vango-dev/dashkit/pkg/features/resource"
	"github.com/vango-dev/dashkit/pkg/live"
	"github.com/vango-dev/dashkit/pkg/middleware"
	"github.com/vango-dev/dashkit/pkg/upload"
)

var errManagerClosed = errors.New("gateway: shutting down")

// Options configures a Gateway.
type Options struct {
	// Sessions verifies and issues session cookies. Required.
	Sessions *session.Manager

	// Mount creates a user's dashboard. Required.
	Mount MountFunc

	// Gatherer is served on /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Metrics records slice transitions of every mounted dashboard.
	Metrics *middleware.Metrics

	// Upload limits gallery uploads received over HTTP.
	// Default: upload.DefaultConfig().
	Upload *upload.Config

	// DevLogin enables POST /api/session.
	DevLogin bool

	// IdleTimeout closes unused dashboards. Zero keeps them until Close.
	IdleTimeout time.Duration

	// AllowedOrigins are accepted by the live feed in addition to
	// same-origin requests.
	AllowedOrigins []string

	// Addr, ReadTimeout and ShutdownTimeout configure Run.
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration

	// WriteTimeout is the deadline for each live feed frame.
	WriteTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Gateway is the dashkit HTTP handler.
type Gateway struct {
	opts    Options
	router  chi.Router
	boards  *manager
	live    *live.Handler
	logger  *slog.Logger
	started time.Time
}

// New creates a Gateway.
func New(opts Options) *Gateway {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Upload == nil {
		opts.Upload = upload.DefaultConfig()
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 30 * time.Second
	}
	g := &Gateway{
		opts:    opts,
		logger:  opts.Logger.With("component", "gateway"),
		started: time.Now(),
	}

	var onOpen func(*dashboard.Dashboard) func()
	if opts.Metrics != nil {
		onOpen = func(d *dashboard.Dashboard) func() {
			views := make([]resource.Observable, 0, 10)
			for _, name := range d.Names() {
				s, _ := d.Slice(name)
				views = append(views, s)
			}
			return opts.Metrics.WatchSlices(views...)
		}
	}
	g.boards = newManager(opts.Mount, opts.IdleTimeout, onOpen, g.logger)

	liveCfg := live.DefaultConfig()
	liveCfg.Logger = opts.Logger
	liveCfg.CheckOrigin = g.checkOrigin
	if opts.WriteTimeout > 0 {
		liveCfg.WriteTimeout = opts.WriteTimeout
	}
	g.live = live.NewHandler(g.resolveLive, liveCfg)

	g.router = g.routes()
	return g
}

func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(g.recoverer)

	r.Get("/healthz", g.handleHealth)
	if g.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(g.opts.Sessions.Middleware())
		if g.opts.DevLogin {
			r.Post("/api/session", g.handleSession)
		}

		r.Group(func(r chi.Router) {
			r.Use(session.Require)
			r.Get("/api/slices", g.handleList)
			r.Get("/api/slices/{name}", g.handleView)
			r.Post("/api/slices/{name}/refresh", g.handleRefresh)
			r.Post("/api/gallery/upload", g.handleUpload)
			r.Method(http.MethodGet, "/live/{name}", g.live)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

// Close closes every mounted dashboard. Live feeds end with them.
func (g *Gateway) Close() error {
	g.boards.shutdown()
	return nil
}

// Run listens on Addr until ctx is done or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              g.opts.Addr,
		Handler:           g,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       g.opts.ReadTimeout,
		// Live feeds manage their own write deadlines.
		WriteTimeout: 0,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway starting", "address", g.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		g.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		g.logger.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.opts.ShutdownTimeout)
	defer cancel()

	// Close dashboards first so live feeds end and hijacked connections
	// do not hold up Shutdown.
	g.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		g.logger.Error("shutdown error", "error", err)
		return err
	}
	g.logger.Info("gateway shutdown complete")
	return nil
}

// Handlers

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"dashboards": g.boards.count(),
		"live":       g.live.Active(),
		"uptime":     time.Since(g.started).Round(time.Second).String(),
	})
}

type sessionRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

func (g *Gateway) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	id := session.Identity{UserID: req.UserID, Role: req.Role, Name: req.Name}
	if _, err := g.opts.Sessions.SetCookie(w, r, id); err != nil {
		g.logger.Error("issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "cannot issue session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"userId": id.UserID})
}

func (g *Gateway) handleList(w http.ResponseWriter, r *http.Request) {
	_, board, ok := g.dashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slices": board.Names()})
}

func (g *Gateway) handleView(w http.ResponseWriter, r *http.Request) {
	s, ok := g.slice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// handleRefresh fetches the slice and returns its view. A failed fetch is
// still a 200: the failure is part of the view.
func (g *Gateway) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s, ok := g.slice(w, r)
	if !ok {
		return
	}
	if err := s.Refresh(r.Context()); err != nil {
		g.logger.Debug("refresh failed", "slice", s.Name(), "error", err)
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (g *Gateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, board, ok := g.dashboard(w, r)
	if !ok {
		return
	}
	files, err := upload.ParseRequest(w, r, g.opts.Upload, "files", 10)
	if err != nil {
		writeError(w, statusFor(err), dasherrors.Message(err, "upload images"))
		return
	}
	sel := upload.NewSelection(files...)
	// The selection is per request; a failed upload is not retried from here.
	defer sel.Clear()

	urls, err := board.Gallery.Upload(r.Context(), sel)
	if err != nil {
		writeError(w, statusFor(err), dasherrors.Message(err, "upload images"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls, "view": board.Gallery.View()})
}

// Helpers

func (g *Gateway) dashboard(w http.ResponseWriter, r *http.Request) (context.Context, *dashboard.Dashboard, bool) {
	id, _ := session.FromContext(r.Context())
	ctx, board, err := g.boards.get(id)
	if err != nil {
		g.logger.Error("mount dashboard", "user", id.UserID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "dashboard unavailable")
		return nil, nil, false
	}
	return ctx, board, true
}

func (g *Gateway) slice(w http.ResponseWriter, r *http.Request) (resource.Observable, bool) {
	_, board, ok := g.dashboard(w, r)
	if !ok {
		return nil, false
	}
	s, found := board.Slice(chi.URLParam(r, "name"))
	if !found {
		writeError(w, http.StatusNotFound, "unknown slice")
		return nil, false
	}
	return s, true
}

func (g *Gateway) resolveLive(r *http.Request) (resource.Observable, error) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		return nil, dasherrors.New(dasherrors.KindUnauthorized, "live")
	}
	_, board, err := g.boards.get(id)
	if err != nil {
		return nil, err
	}
	name := chi.URLParam(r, "name")
	s, found := board.Slice(name)
	if !found {
		return nil, dasherrors.Precondition("live", "unknown slice "+name)
	}
	return s, nil
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(g.opts.AllowedOrigins, origin)
}

func (g *Gateway) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				g.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusFor maps an error kind to the gateway's response status.
func statusFor(err error) int {
	switch dasherrors.KindOf(err) {
	case dasherrors.KindPrecondition:
		return http.StatusBadRequest
	case dasherrors.KindUnauthorized:
		return http.StatusUnauthorized
	case dasherrors.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case dasherrors.KindCanceled:
		return 499
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
