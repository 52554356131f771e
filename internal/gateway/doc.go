// Package gateway is the HTTP surface of dashkit.
//
// It serves each signed-in user's dashboard slices as JSON, streams them
// over WebSocket and exposes health and Prometheus metrics:
//
//	GET  /healthz
//	GET  /metrics
//	POST /api/session                 (development login, when enabled)
//	GET  /api/slices
//	GET  /api/slices/{name}
//	POST /api/slices/{name}/refresh
//	POST /api/gallery/upload
//	GET  /live/{name}
//
// Every /api and /live route requires a valid session. One Dashboard is
// mounted per user on first use and closed after IdleTimeout without
// requests.
package gateway
