// Package provider scopes remote state to an explicit owner.
//
// A Context is a typed key. A value is provided into a context.Context
// subtree with Provide and read back with Use. Use outside any providing
// subtree is a usage error and fails before anything else happens:
//
//	var Zones = provider.Create[*ZoneSlice]("zones")
//
//	ctx = Zones.Provide(ctx, slice)
//	z, err := Zones.Use(ctx) // ErrNoProvider when not provided
//
// A Scope owns the lifetime of everything mounted under it. Closing the
// scope cancels its context, which aborts every in-flight request threaded
// through it, and closes every tracked resource.
package provider
