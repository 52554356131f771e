// Package features groups the building blocks every dashboard slice is
// made of.
//
// # Subsystems
//
//   - resource: a remote value with idle/loading/ready/failed states,
//     latest-request-wins ordering and error-to-message mapping
//   - provider: typed values carried on a context.Context, and the Scope
//     that owns and cancels the resources mounted under it
//
// # Usage
//
//	scope := provider.NewScope(ctx)
//	defer scope.Close()
//
//	zones := resource.New(scope, "zones", fetchZones)
//	ctx = ZonesContext.Provide(scope.Context(), zones)
//
//	// Elsewhere, with only ctx in hand:
//	zones, err := ZonesContext.Use(ctx)
package features
