package resource

import (
	"context"
	"time"
)

// Snapshot is an immutable copy of a resource's state.
type Snapshot[T any] struct {
	Name      string
	State     State
	Data      T
	HasData   bool
	Err       string
	Seq       uint64
	UpdatedAt time.Time
}

// View is a type-erased snapshot, as served to consuming views.
type View struct {
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	Data      any       `json:"data"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// View converts the snapshot.
func (s Snapshot[T]) View() View {
	return View{
		Name:      s.Name,
		State:     s.State.String(),
		Loading:   s.State == Loading,
		Error:     s.Err,
		Data:      s.Data,
		Seq:       s.Seq,
		UpdatedAt: s.UpdatedAt,
	}
}

// Observable is the non-generic face of a Resource.
type Observable interface {
	Name() string
	View() View
	Watch(fn func(View)) (cancel func())
	Refresh(ctx context.Context) error
	Done() <-chan struct{}
}

// View returns the current state type-erased.
func (r *Resource[T]) View() View {
	return r.Snapshot().View()
}

// Watch is Subscribe for type-erased consumers.
func (r *Resource[T]) Watch(fn func(View)) (cancel func()) {
	return r.Subscribe(func(s Snapshot[T]) {
		fn(s.View())
	})
}

// Refresh forces a fetch.
func (r *Resource[T]) Refresh(ctx context.Context) error {
	return r.Refetch(ctx)
}

var _ Observable = (*Resource[int])(nil)
