package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed remote exchange.
type Kind int

const (
	// KindNetwork covers transport and connectivity failures.
	KindNetwork Kind = iota
	// KindServer covers non-2xx responses.
	KindServer
	// KindDecode covers malformed response bodies.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by every Client call. Callers that need
// retry or logging policy can inspect Kind; everything collapses to one
// human-readable line via Message.
type Error struct {
	Kind   Kind
	Op     string // e.g. "accept issue"
	Status int    // HTTP status, KindServer only
	Detail string // trimmed response body or transport error text
	Err    error  // wrapped cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("%s: server rejected request (HTTP %d): %s", e.Op, e.Status, e.Detail)
	case KindDecode:
		return fmt.Sprintf("%s: malformed server response: %s", e.Op, e.Detail)
	default:
		return fmt.Sprintf("%s: request failed: %s", e.Op, e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Message converts any error from this package (or elsewhere) into a single
// display-ready line for component error state.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
