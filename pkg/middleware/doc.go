// Package middleware instruments the backend client.
//
// Both middlewares wrap an http.RoundTripper and plug into api.Client:
//
//	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))
//	client, _ := api.New(baseURL,
//	    api.WithMiddleware(
//	        middleware.OpenTelemetry(middleware.WithTracerName("dashkit")),
//	        metrics.Transport(),
//	    ),
//	)
//
// # Prometheus Metrics
//
//   - dashkit_api_requests_total: requests by method, route and status
//   - dashkit_api_request_duration_seconds: request duration histogram
//   - dashkit_api_errors_total: transport failures by method and route
//   - dashkit_api_in_flight: requests currently in flight
//   - dashkit_slice_transitions_total: resource state changes by slice
//
// Routes are normalized so identifiers do not become label values:
// "/wallet/u123" is recorded as "/wallet/:id".
//
// # OpenTelemetry
//
// Every request gets a client span named "HTTP <METHOD> <route>" and the
// trace context is injected into the outgoing headers with the global
// propagator.
package middleware
