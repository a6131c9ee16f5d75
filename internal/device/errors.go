package device

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// User-facing failure categories. Raw transport errors never reach a
// user-visible message; they are collapsed into these.
const (
	CategoryConnRefused = "connection_refused"
	CategoryTimeout     = "timeout"
	CategoryUnreachable = "unreachable"
	CategoryGeneric     = "communication_error"
)

// Categorize maps a device call error to a stable user-facing category.
func Categorize(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CategoryConnRefused
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return CategoryUnreachable
	}

	// Fallback string checks: some drivers wrap the syscall error in a way
	// that defeats errors.Is.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return CategoryConnRefused
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "no such host"), strings.Contains(msg, "unreachable"):
		return CategoryUnreachable
	default:
		return CategoryGeneric
	}
}

// CategoryMessage renders a category as a short user-facing sentence.
func CategoryMessage(category string) string {
	switch category {
	case CategoryConnRefused:
		return "the greenhouse device refused the connection"
	case CategoryTimeout:
		return "the greenhouse device did not answer in time"
	case CategoryUnreachable:
		return "the greenhouse device is unreachable"
	default:
		return "communication with the greenhouse device failed"
	}
}
