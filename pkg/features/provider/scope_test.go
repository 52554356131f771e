package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

type closeRecorder struct {
	id    int
	order *[]int
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.id)
	return c.err
}

func TestScopeCloseCancelsContext(t *testing.T) {
	s := NewScope(context.Background())
	if s.Closed() {
		t.Fatal("new scope should be open")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-s.Context().Done():
	default:
		t.Fatal("scope context should be cancelled after Close")
	}
	if !s.Closed() {
		t.Error("Closed() should be true")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestScopeClosesTrackedInReverse(t *testing.T) {
	var order []int
	s := NewScope(nil)
	boom := errors.New("boom")
	s.Track(&closeRecorder{id: 1, order: &order})
	s.Track(&closeRecorder{id: 2, order: &order, err: boom})
	s.Track(&closeRecorder{id: 3, order: &order})

	err := s.Close()
	if !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want boom", err)
	}
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("closed %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("closed %v, want %v", order, want)
		}
	}
}

func TestTrackAfterClose(t *testing.T) {
	var order []int
	s := NewScope(context.Background())
	s.Close()
	s.Track(&closeRecorder{id: 7, order: &order})
	if len(order) != 1 || order[0] != 7 {
		t.Errorf("tracking on closed scope should close immediately, got %v", order)
	}
}

func TestParentCancelMarksClosed(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := NewScope(parent)
	cancel()
	if !s.Closed() {
		t.Error("scope should report closed once its parent is done")
	}
}

func TestBind(t *testing.T) {
	t.Run("scope close cancels bound context", func(t *testing.T) {
		s := NewScope(context.Background())
		ctx, stop := s.Bind(context.Background())
		defer stop()

		s.Close()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("bound context not cancelled")
		}
		if !errors.Is(context.Cause(ctx), ErrClosed) {
			t.Errorf("Cause = %v, want ErrClosed", context.Cause(ctx))
		}
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", ctx.Err())
		}
	})

	t.Run("caller cancel does not close scope", func(t *testing.T) {
		s := NewScope(context.Background())
		defer s.Close()
		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := s.Bind(parent)
		defer stop()

		cancel()
		<-ctx.Done()
		if s.Closed() {
			t.Error("scope should stay open")
		}
	})

	t.Run("stop releases", func(t *testing.T) {
		s := NewScope(context.Background())
		defer s.Close()
		ctx, stop := s.Bind(context.Background())
		stop()
		if ctx.Err() == nil {
			t.Error("stop should cancel the bound context")
		}
	})
}
