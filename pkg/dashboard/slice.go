package dashboard

import (
	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
)

func newResource[T any](scope *provider.Scope, deps *Deps, name, action string, fetch resource.Fetcher[T], initial T) *resource.Resource[T] {
	return resource.New(scope, name, fetch,
		resource.WithAction[T](action),
		resource.WithInitial(initial),
		resource.WithLogger[T](deps.Logger),
	)
}

// requireUser fails with a precondition error when no one is signed in.
func requireUser(op string, id session.Identity) error {
	if id.IsZero() {
		return dasherrors.Precondition(op, "not signed in")
	}
	return nil
}

// nonNil keeps list slices an empty, ordered sequence instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
