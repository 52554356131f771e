package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string  { return color(colorRed, text) }
func cyan(text string) string { return color(colorCyan, text) }
func gray(text string) string { return color(colorGray, text) }
func bold(text string) string { return color(colorBold, text) }

// Format renders err for terminal display: the user-facing message first,
// then the code, operation and cause.
func Format(err error, action string) string {
	if err == nil {
		return ""
	}
	var b strings.Builder

	msg := Message(err, action)
	if msg == "" {
		msg = "Canceled."
	}
	b.WriteString(red(bold("ERROR ")))

	var e *Error
	if stderrors.As(err, &e) {
		b.WriteString(bold(e.Code() + ": "))
		b.WriteString(msg)
		b.WriteString("\n")
		if e.Op != "" {
			b.WriteString("\n  " + cyan(e.Op))
			if e.Status != 0 {
				b.WriteString(gray(fmt.Sprintf(" → %d", e.Status)))
			}
			b.WriteString("\n")
		}
		if e.Detail != "" && e.Kind != KindPrecondition {
			b.WriteString("  " + e.Detail + "\n")
		}
		if e.Wrapped != nil {
			b.WriteString(gray("  cause: "+e.Wrapped.Error()) + "\n")
		}
		return b.String()
	}

	b.WriteString(msg)
	b.WriteString("\n")
	b.WriteString(gray("  cause: "+err.Error()) + "\n")
	return b.String()
}
