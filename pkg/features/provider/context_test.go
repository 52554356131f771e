package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type theme struct {
	name string
}

func TestUseOutsideProvider(t *testing.T) {
	ctx := Create[*theme]("theme")

	v, err := ctx.Use(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Use() error = %v, want ErrNoProvider", err)
	}
	if v != nil {
		t.Errorf("Use() = %v, want nil", v)
	}
	if !strings.Contains(err.Error(), "theme") {
		t.Errorf("error %q should name the context", err)
	}
}

func TestUseNilContext(t *testing.T) {
	ctx := Create[int]("count")
	if _, err := ctx.Use(nil); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Use(nil) error = %v, want ErrNoProvider", err)
	}
}

func TestProvideAndUse(t *testing.T) {
	key := Create[*theme]("theme")
	dark := &theme{name: "dark"}

	ctx := key.Provide(context.Background(), dark)
	got, err := key.Use(ctx)
	if err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if got != dark {
		t.Errorf("Use() = %v, want %v", got, dark)
	}
}

func TestNestedProviderShadows(t *testing.T) {
	key := Create[string]("locale")

	outer := key.Provide(context.Background(), "en")
	inner := key.Provide(outer, "fr")

	if got := key.MustUse(inner); got != "fr" {
		t.Errorf("inner = %q, want fr", got)
	}
	if got := key.MustUse(outer); got != "en" {
		t.Errorf("outer = %q, want en", got)
	}
}

func TestContextsAreIndependent(t *testing.T) {
	a := Create[string]("a")
	b := Create[string]("b")

	ctx := a.Provide(context.Background(), "value")
	if _, err := b.Use(ctx); !errors.Is(err, ErrNoProvider) {
		t.Error("b should not see a's value")
	}
}

func TestMustUsePanics(t *testing.T) {
	key := Create[int]("count")
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustUse should panic outside a provider")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoProvider) {
			t.Errorf("panic value = %v, want ErrNoProvider", r)
		}
	}()
	key.MustUse(context.Background())
}
