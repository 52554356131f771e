// Package errors is the closed error taxonomy of the dashboard data layer.
//
// Every failure that crosses the HTTP boundary, the upload boundary or a
// local precondition check is an *Error carrying one Kind:
//   - network: the request never produced a response
//   - status: the backend answered with a non-2xx code or success=false
//   - malformed: the response body did not have the expected shape
//   - precondition: a required input was missing (identity, file, field)
//   - unauthorized: the backend rejected the credentials (401/403)
//   - too_large: the upload exceeded the accepted size
//   - canceled: the owning scope went away while the call was in flight
//
// # User-facing messages
//
// Kinds are mapped to user-facing strings exactly once, in the registry.
// Call sites never branch on status codes to build messages:
//
//	msg := errors.Message(err, "load zones")
//	// "Failed to load zones."
//
// Each kind also has a stable code (e.g. "D101") that shows up in logs and
// in the CLI's formatted output.
package errors
