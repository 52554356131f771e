package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProvider is returned by Use when no value was provided.
var ErrNoProvider = errors.New("provider: used outside of its provider")

// Context is a typed provider key.
type Context[T any] struct {
	name string
}

// Create creates a new Context. name only appears in errors.
func Create[T any](name string) *Context[T] {
	return &Context[T]{name: name}
}

// Name returns the context name.
func (c *Context[T]) Name() string {
	return c.name
}

// Provide returns a copy of parent in which c resolves to value.
// Values provided deeper in the tree shadow outer ones.
func (c *Context[T]) Provide(parent context.Context, value T) context.Context {
	return context.WithValue(parent, c, value)
}

// Use retrieves the provided value.
func (c *Context[T]) Use(ctx context.Context) (T, error) {
	if ctx != nil {
		if v, ok := ctx.Value(c).(T); ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s", ErrNoProvider, c.name)
}

// MustUse is like Use but panics when no value was provided.
func (c *Context[T]) MustUse(ctx context.Context) T {
	v, err := c.Use(ctx)
	if err != nil {
		panic(err)
	}
	return v
}
