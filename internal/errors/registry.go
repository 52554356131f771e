package errors

import (
	stderrors "errors"
	"fmt"
)

// Template defines the registered presentation of a Kind.
type Template struct {
	// Code is a stable identifier used in logs.
	Code string

	// Message is the user-facing string. "%s" is replaced by the action.
	Message string

	// Detail is a longer explanation for operators.
	Detail string
}

// registry maps every kind to its template.
var registry = map[Kind]Template{
	KindNetwork: {
		Code:    "D101",
		Message: "Failed to %s.",
		Detail:  "The request did not reach the server or no response was received.",
	},
	KindStatus: {
		Code:    "D102",
		Message: "Failed to %s.",
		Detail:  "The server answered with an error status or success=false.",
	},
	KindMalformed: {
		Code:    "D103",
		Message: "Failed to %s.",
		Detail:  "The response body did not have the expected shape.",
	},
	KindPrecondition: {
		Code:    "D104",
		Message: "Cannot %s: %s.",
		Detail:  "A required input was missing; no request was sent.",
	},
	KindUnauthorized: {
		Code:    "D105",
		Message: "Your session has expired. Please sign in again.",
		Detail:  "The server rejected the credentials (401/403).",
	},
	KindTooLarge: {
		Code:    "D106",
		Message: "Upload failed: Images exceed the allowed file size.",
		Detail:  "The object store refused the body (413) or reset the connection mid-upload.",
	},
	KindCanceled: {
		Code:   "D107",
		Detail: "The owning scope was closed while the request was in flight.",
	},
}

func lookup(kind Kind) Template {
	if t, ok := registry[kind]; ok {
		return t
	}
	return registry[KindNetwork]
}

// GetTemplate returns the template for a kind.
func GetTemplate(kind Kind) (Template, bool) {
	t, ok := registry[kind]
	return t, ok
}

// Kinds returns every registered kind.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	return kinds
}

// Message maps err to its static user-facing string. action is a short
// verb phrase such as "load zones". Canceled errors map to "".
func Message(err error, action string) string {
	if err == nil {
		return ""
	}
	kind := KindOf(err)
	t := lookup(kind)
	switch kind {
	case KindCanceled:
		return ""
	case KindPrecondition:
		detail := "missing input"
		var e *Error
		if stderrors.As(err, &e) && e.Detail != "" {
			detail = e.Detail
		}
		return fmt.Sprintf(t.Message, action, detail)
	case KindUnauthorized, KindTooLarge:
		return t.Message
	default:
		return fmt.Sprintf(t.Message, action)
	}
}
