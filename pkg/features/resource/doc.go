// Package resource mirrors one slice of remote, server-owned state.
//
// A Resource moves through Idle → Loading → {Ready, Failed}. It holds the
// last good payload, a static user-facing error message and a request
// sequence number. Every Fetch or Mutate takes the next sequence number;
// a response is applied only if its number is still the latest, so the
// most recently dispatched request wins regardless of arrival order.
//
// Resources belong to an Owner (a provider.Scope). Every request context
// is bound to the owner, so closing the owner aborts in-flight requests
// and freezes the state; late responses are dropped.
//
// Basic usage:
//
//	zones := resource.New(scope, "zones", func(ctx context.Context) ([]Zone, error) {
//	    var out []Zone
//	    return out, client.Get(ctx, "/zones", &out)
//	}, resource.WithAction("load zones"), resource.WithInitial([]Zone{}))
//
//	if err := zones.Fetch(ctx); err != nil {
//	    // zones.Err() already holds "Failed to load zones."
//	}
//
//	out := resource.Match(zones.Snapshot(),
//	    resource.OnLoading[[]Zone](func() string { return "Loading..." }),
//	    resource.OnFailed[[]Zone](func(msg string) string { return msg }),
//	    resource.OnReady(func(z []Zone) string { return render(z) }),
//	)
package resource
