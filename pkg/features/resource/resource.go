package resource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
)

// State represents the current state of a resource.
type State int

const (
	Idle    State = iota // Before the first request
	Loading              // The latest request is in flight
	Ready                // Data loaded, no error
	Failed               // The latest request failed; prior data retained
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrSuperseded is returned by Fetch when a newer request was dispatched
// before this one completed. Its result was discarded.
var ErrSuperseded = errors.New("resource: superseded by a newer request")

// ErrClosed is returned when the resource or its owner is closed.
var ErrClosed = errors.New("resource: closed")

// Owner scopes the lifetime of a resource. provider.Scope implements it.
type Owner interface {
	Bind(ctx context.Context) (context.Context, func())
	Track(c io.Closer)
	Closed() bool
}

// Fetcher loads the slice from the backend.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource manages one slice of remote state.
type Resource[T any] struct {
	name    string
	action  string
	owner   Owner
	fetcher Fetcher[T]
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	settled   State
	data      T
	hasData   bool
	errMsg    string
	cause     error
	seq       uint64
	updatedAt time.Time
	lastFetch time.Time
	closed    bool
	done      chan struct{}

	// Options
	staleTime time.Duration
	onSuccess func(T)
	onError   func(error)

	subs    map[uint64]func(Snapshot[T])
	nextSub uint64
}

// New creates a Resource owned by owner. It does not fetch.
func New[T any](owner Owner, name string, fetcher Fetcher[T], opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		name:    name,
		action:  "load " + name,
		owner:   owner,
		fetcher: fetcher,
		logger:  slog.Default(),
		done:    make(chan struct{}),
		subs:    make(map[uint64]func(Snapshot[T])),
	}
	for _, opt := range opts {
		opt(r)
	}
	owner.Track(r)
	return r
}

// Name returns the slice name.
func (r *Resource[T]) Name() string {
	return r.name
}

// State methods

func (r *Resource[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resource[T]) Loading() bool {
	return r.State() == Loading
}

func (r *Resource[T]) IsReady() bool {
	return r.State() == Ready
}

func (r *Resource[T]) IsFailed() bool {
	return r.State() == Failed
}

// Data access methods

func (r *Resource[T]) Data() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Err returns the user-facing error message, or "" when the last settled
// request succeeded.
func (r *Resource[T]) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// Cause returns the classified error behind Err.
func (r *Resource[T]) Cause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cause
}

// Snapshot returns a consistent copy of the current state.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Resource[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Name:      r.name,
		State:     r.state,
		Data:      r.data,
		HasData:   r.hasData,
		Err:       r.errMsg,
		Seq:       r.seq,
		UpdatedAt: r.updatedAt,
	}
}

// Control methods

// Fetch loads the slice. While data is fresher than StaleTime it returns
// nil without a request. Use Refetch to bypass.
func (r *Resource[T]) Fetch(ctx context.Context) error {
	r.mu.Lock()
	fresh := r.state == Ready && r.staleTime > 0 && time.Since(r.lastFetch) < r.staleTime
	r.mu.Unlock()
	if fresh {
		return nil
	}
	return r.Refetch(ctx)
}

// Refetch always performs one request. Loading is set before it returns
// control to the fetcher. The returned error is the fetch error when the
// result was applied, ErrSuperseded when a newer request won, or ErrClosed.
func (r *Resource[T]) Refetch(ctx context.Context) error {
	seq, err := r.begin()
	if err != nil {
		return err
	}

	ctx, stop := r.owner.Bind(ctx)
	defer stop()

	data, ferr := r.fetcher(ctx)
	applied, err := r.settle(seq, r.action, data, ferr, true)
	if err != nil {
		return err
	}
	if !applied {
		return ErrSuperseded
	}
	return ferr
}

// Mutate performs one owner-mediated change. fn receives the current data
// and returns the data to store; returning the input unchanged leaves the
// slice for a caller-triggered refetch. On failure the error message is
// recorded for action and data is left untouched.
//
// If a newer request was dispatched while fn ran, the returned data is
// discarded but fn's own error is still returned.
func (r *Resource[T]) Mutate(ctx context.Context, action string, fn func(ctx context.Context, current T) (T, error)) error {
	seq, err := r.begin()
	if err != nil {
		return err
	}

	ctx, stop := r.owner.Bind(ctx)
	defer stop()

	next, merr := fn(ctx, r.Data())
	if _, err := r.settle(seq, action, next, merr, false); err != nil {
		return err
	}
	return merr
}

// Invalidate marks the current data as stale.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.lastFetch = time.Time{}
	r.mu.Unlock()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside any lock.
func (r *Resource[T]) Subscribe(fn func(Snapshot[T])) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return func() {}
	}
	r.nextSub++
	id := r.nextSub
	r.subs[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Done is closed when the resource closes.
func (r *Resource[T]) Done() <-chan struct{} {
	return r.done
}

// Close freezes the resource and drops its subscribers. Owners call it.
func (r *Resource[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.subs = nil
	close(r.done)
	return nil
}

// begin dispatches a request: it takes the next sequence number and moves
// to Loading.
func (r *Resource[T]) begin() (uint64, error) {
	r.mu.Lock()
	if r.closed || r.owner.Closed() {
		r.mu.Unlock()
		return 0, ErrClosed
	}
	r.seq++
	seq := r.seq
	r.state = Loading
	snap := r.snapshotLocked()
	subs := r.subscribersLocked()
	r.mu.Unlock()

	r.logger.Debug("resource request dispatched", "resource", r.name, "seq", seq)
	notify(subs, snap)
	return seq, nil
}

// settle applies the outcome of request seq if it is still the latest.
func (r *Resource[T]) settle(seq uint64, action string, data T, err error, fetch bool) (bool, error) {
	r.mu.Lock()
	if r.closed || r.owner.Closed() {
		r.mu.Unlock()
		r.logger.Debug("resource response dropped after close", "resource", r.name, "seq", seq)
		return false, ErrClosed
	}
	if seq != r.seq {
		r.mu.Unlock()
		r.logger.Debug("resource response superseded", "resource", r.name, "seq", seq, "latest", r.seq)
		return false, nil
	}

	now := time.Now()
	switch {
	case err == nil:
		r.data = data
		r.hasData = true
		r.errMsg = ""
		r.cause = nil
		r.state = Ready
		if fetch {
			r.lastFetch = now
		}
	case dasherrors.Is(err, dasherrors.KindCanceled):
		// The caller gave up; the slice goes back to where it was.
		r.state = r.settled
	default:
		r.errMsg = dasherrors.Message(err, action)
		r.cause = err
		r.state = Failed
	}
	r.settled = r.state
	r.updatedAt = now
	snap := r.snapshotLocked()
	subs := r.subscribersLocked()
	onSuccess, onError := r.onSuccess, r.onError
	r.mu.Unlock()

	switch {
	case err != nil && snap.State == Failed:
		r.logger.Warn("resource request failed",
			"resource", r.name,
			"action", action,
			"kind", dasherrors.KindOf(err),
			"error", err,
		)
	case err != nil:
		r.logger.Debug("resource request canceled", "resource", r.name, "seq", seq)
	}

	notify(subs, snap)
	if err == nil && onSuccess != nil {
		onSuccess(data)
	}
	if err != nil && snap.State == Failed && onError != nil {
		onError(err)
	}
	return true, nil
}

func (r *Resource[T]) subscribersLocked() []func(Snapshot[T]) {
	if len(r.subs) == 0 {
		return nil
	}
	fns := make([]func(Snapshot[T]), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	return fns
}

func notify[T any](subs []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range subs {
		fn(snap)
	}
}
