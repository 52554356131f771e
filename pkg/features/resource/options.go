package resource

import (
	"log/slog"
	"time"
)

// Option configures a Resource at construction.
type Option[T any] func(*Resource[T])

// WithAction sets the verb phrase used in fetch error messages,
// e.g. "load zones". Default: "load " + name.
func WithAction[T any](action string) Option[T] {
	return func(r *Resource[T]) {
		r.action = action
	}
}

// WithInitial sets the data held before the first successful request.
// List slices use an empty, non-nil slice.
func WithInitial[T any](data T) Option[T] {
	return func(r *Resource[T]) {
		r.data = data
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(r *Resource[T]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// StaleTime sets the duration before data is considered stale.
func (r *Resource[T]) StaleTime(d time.Duration) *Resource[T] {
	r.mu.Lock()
	r.staleTime = d
	r.mu.Unlock()
	return r
}

// OnSuccess registers a callback to be called when a request succeeds.
func (r *Resource[T]) OnSuccess(fn func(T)) *Resource[T] {
	r.mu.Lock()
	r.onSuccess = fn
	r.mu.Unlock()
	return r
}

// OnError registers a callback to be called when a request fails.
func (r *Resource[T]) OnError(fn func(error)) *Resource[T] {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
	return r
}
