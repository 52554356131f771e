// Package live streams slice state to consuming views over WebSocket.
//
// A connection is bound to one slice. The handler sends the current view
// immediately, then one frame per state change:
//
//	{"type":"view","view":{"name":"zones","state":"ready","data":[...],"seq":3}}
//
// Frames coalesce: a slow client receives the latest view, not every
// intermediate one. Clients may send {"type":"refresh"} to force a fetch.
// The stream ends with a close frame when the slice's owner closes.
package live
