package provider

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned when work is attempted on a closed Scope.
var ErrClosed = errors.New("provider: scope closed")

// Scope owns the lifetime of the values mounted under it.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// NewScope creates a scope whose context derives from parent.
// Cancelling parent has the same effect on in-flight work as Close,
// but tracked closers only run on Close.
func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context returns the scope's context. It is cancelled on Close.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Track registers c to be closed when the scope closes. Tracking on a
// closed scope closes c immediately.
func (s *Scope) Track(c io.Closer) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.Close()
		return
	}
	s.closers = append(s.closers, c)
	s.mu.Unlock()
}

// Closed reports whether Close has been called or the parent context
// is done.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	return closed || s.ctx.Err() != nil
}

// Close cancels the scope's context and closes tracked values in reverse
// order. It is safe to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	s.cancel()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bind returns a context that is cancelled when either ctx or the scope is
// done. The returned stop function releases the link and must be called.
func (s *Scope) Bind(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	bound, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(s.ctx, func() {
		cancel(ErrClosed)
	})
	return bound, func() {
		stop()
		cancel(nil)
	}
}
