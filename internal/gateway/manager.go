package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/dashboard"
)

// MountFunc mounts a dashboard for one identity.
type MountFunc func(ctx context.Context, id session.Identity) (context.Context, *dashboard.Dashboard, error)

type entry struct {
	ctx      context.Context
	board    *dashboard.Dashboard
	lastUsed time.Time
	stop     func()
}

// manager caches one dashboard per user id.
type manager struct {
	mount  MountFunc
	onOpen func(*dashboard.Dashboard) (stop func())
	idle   time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	done        chan struct{}
	cleanupDone chan struct{}
}

func newManager(mount MountFunc, idle time.Duration, onOpen func(*dashboard.Dashboard) func(), logger *slog.Logger) *manager {
	m := &manager{
		mount:       mount,
		onOpen:      onOpen,
		idle:        idle,
		logger:      logger,
		entries:     make(map[string]*entry),
		done:        make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// get returns the user's dashboard, mounting it on first use.
func (m *manager) get(id session.Identity) (context.Context, *dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, nil, errManagerClosed
	}
	if e, ok := m.entries[id.UserID]; ok && !e.board.Closed() {
		e.lastUsed = time.Now()
		return e.ctx, e.board, nil
	} else if ok && e.stop != nil {
		e.stop()
	}

	ctx, board, err := m.mount(context.Background(), id)
	if err != nil {
		return nil, nil, err
	}
	e := &entry{ctx: ctx, board: board, lastUsed: time.Now()}
	if m.onOpen != nil {
		e.stop = m.onOpen(board)
	}
	m.entries[id.UserID] = e
	m.logger.Info("dashboard opened", "user", id.UserID, "open", len(m.entries))
	return ctx, board, nil
}

// count returns the number of open dashboards.
func (m *manager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// cleanupLoop periodically closes idle dashboards.
func (m *manager) cleanupLoop() {
	defer close(m.cleanupDone)
	if m.idle <= 0 {
		<-m.done
		return
	}

	interval := m.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now().Add(-m.idle))
		case <-m.done:
			return
		}
	}
}

// sweep closes dashboards last used before cutoff.
func (m *manager) sweep(cutoff time.Time) int {
	m.mu.Lock()
	var expired []*entry
	for uid, e := range m.entries {
		if e.lastUsed.Before(cutoff) || e.board.Closed() {
			expired = append(expired, e)
			delete(m.entries, uid)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		closeEntry(e)
	}
	if len(expired) > 0 {
		m.logger.Info("closed idle dashboards", "count", len(expired))
	}
	return len(expired)
}

// shutdown stops the cleanup loop and closes every dashboard.
func (m *manager) shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	close(m.done)
	<-m.cleanupDone

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			closeEntry(e)
		}(e)
	}
	wg.Wait()
}

func closeEntry(e *entry) {
	if e.stop != nil {
		e.stop()
	}
	e.board.Close()
}
