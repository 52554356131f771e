package resource

// Handler renders a snapshot in one state.
type Handler[T, R any] interface {
	handle(Snapshot[T]) (R, bool)
}

// Match renders the snapshot with the first handler that accepts its
// state. It returns the zero R when none does.
func Match[T, R any](s Snapshot[T], handlers ...Handler[T, R]) R {
	for _, h := range handlers {
		if out, ok := h.handle(s); ok {
			return out
		}
	}
	var zero R
	return zero
}

type stateHandler[T, R any] struct {
	states []State
	fn     func(Snapshot[T]) R
}

func (h stateHandler[T, R]) handle(s Snapshot[T]) (R, bool) {
	for _, st := range h.states {
		if s.State == st {
			return h.fn(s), true
		}
	}
	var zero R
	return zero, false
}

// OnIdle handles the Idle state.
func OnIdle[T, R any](fn func() R) Handler[T, R] {
	return stateHandler[T, R]{states: []State{Idle}, fn: func(Snapshot[T]) R { return fn() }}
}

// OnLoading handles the Loading state.
func OnLoading[T, R any](fn func() R) Handler[T, R] {
	return stateHandler[T, R]{states: []State{Loading}, fn: func(Snapshot[T]) R { return fn() }}
}

// OnLoadingOrIdle handles both Loading and Idle.
func OnLoadingOrIdle[T, R any](fn func() R) Handler[T, R] {
	return stateHandler[T, R]{states: []State{Idle, Loading}, fn: func(Snapshot[T]) R { return fn() }}
}

// OnFailed handles the Failed state with the user-facing message.
func OnFailed[T, R any](fn func(msg string) R) Handler[T, R] {
	return stateHandler[T, R]{states: []State{Failed}, fn: func(s Snapshot[T]) R { return fn(s.Err) }}
}

// OnReady handles the Ready state.
func OnReady[T, R any](fn func(T) R) Handler[T, R] {
	return stateHandler[T, R]{states: []State{Ready}, fn: func(s Snapshot[T]) R { return fn(s.Data) }}
}
