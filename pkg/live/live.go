package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// Config configures the live feed.
type Config struct {
	// ReadTimeout is the maximum time without a pong or message.
	// Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout is the deadline for each frame.
	// Default: 10s.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings. Must be below
	// ReadTimeout. Default: 30s.
	HeartbeatInterval time.Duration

	// MaxMessageSize limits client messages. Default: 4KB.
	MaxMessageSize int64

	// CheckOrigin validates the Origin header. Nil accepts same-origin
	// requests only.
	CheckOrigin func(r *http.Request) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    4 << 10,
	}
}

// Frame is one server-to-client message.
type Frame struct {
	Type string         `json:"type"`
	View *resource.View `json:"view,omitempty"`
}

type clientMessage struct {
	Type string `json:"type"`
}

// Resolver finds the slice a request subscribes to. Errors with
// KindUnauthorized answer 401; any other error answers 404.
type Resolver func(r *http.Request) (resource.Observable, error)

// Handler serves live feeds.
type Handler struct {
	config   *Config
	resolve  Resolver
	upgrader websocket.Upgrader
	logger   *slog.Logger
	active   atomic.Int64
}

// NewHandler creates a Handler. A nil config uses DefaultConfig, and zero
// fields of a given config take their default values.
func NewHandler(resolve Resolver, config *Config) *Handler {
	config = withDefaults(config)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config:  config,
		resolve: resolve,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger.With("component", "live"),
	}
}

// withDefaults returns a copy of config with zero fields filled in.
func withDefaults(config *Config) *Config {
	d := DefaultConfig()
	if config == nil {
		return d
	}
	c := *config
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return &c
}

// Active returns the number of open connections.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// ServeHTTP upgrades the request and streams the resolved slice.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	obs, err := h.resolve(r)
	if err != nil {
		status := http.StatusNotFound
		if dasherrors.Is(err, dasherrors.KindUnauthorized) {
			status = http.StatusUnauthorized
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("upgrade failed", "error", err)
		return
	}
	h.active.Add(1)
	defer h.active.Add(-1)

	f := &feed{
		conn:   conn,
		obs:    obs,
		config: h.config,
		logger: h.logger.With("slice", obs.Name()),
		notify: make(chan struct{}, 1),
	}
	f.run(r.Context())
}

// feed is one connection.
type feed struct {
	conn   *websocket.Conn
	obs    resource.Observable
	config *Config
	logger *slog.Logger

	mu      sync.Mutex
	pending *resource.View
	notify  chan struct{}
}

// offer stores v as the next frame, replacing any unsent one.
func (f *feed) offer(v resource.View) {
	f.mu.Lock()
	f.pending = &v
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *feed) take() *resource.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.pending
	f.pending = nil
	return v
}

func (f *feed) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer f.conn.Close()

	stop := f.obs.Watch(f.offer)
	defer stop()
	f.offer(f.obs.View())

	readDone := make(chan struct{})
	go f.readLoop(ctx, readDone)

	ticker := time.NewTicker(f.config.HeartbeatInterval)
	defer ticker.Stop()

	f.logger.Debug("live feed opened")
	for {
		select {
		case <-f.notify:
			if v := f.take(); v != nil {
				if err := f.write(Frame{Type: "view", View: v}); err != nil {
					f.logger.Debug("live write failed", "error", err)
					return
				}
			}

		case <-ticker.C:
			f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
			if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-f.obs.Done():
			f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
			f.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "slice closed"))
			f.logger.Debug("live feed closed by owner")
			return

		case <-readDone:
			f.logger.Debug("live feed closed by client")
			return

		case <-ctx.Done():
			return
		}
	}
}

func (f *feed) write(frame Frame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	return f.conn.WriteMessage(websocket.TextMessage, b)
}

// readLoop handles pongs and client messages until the connection fails.
func (f *feed) readLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	f.conn.SetReadLimit(f.config.MaxMessageSize)
	f.conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
	f.conn.SetPongHandler(func(string) error {
		f.conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))
		return nil
	})

	for {
		_, msg, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				f.logger.Warn("live read error", "error", err)
			}
			return
		}
		f.conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			f.logger.Debug("ignoring malformed client message", "error", err)
			continue
		}
		switch m.Type {
		case "refresh":
			// The outcome reaches the client through Watch.
			go f.obs.Refresh(ctx)
		default:
			f.logger.Debug("ignoring client message", "type", m.Type)
		}
	}
}
