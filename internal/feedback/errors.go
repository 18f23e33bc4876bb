package feedback

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure. All kinds except KindUnavailable are
// expected, caller-correctable outcomes and are returned as values rather
// than logged or swallowed. KindUnavailable marks storage faults the boundary
// layer may retry.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidInput
	KindForbidden
	KindConflict
	KindRateLimited
	KindExpired
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindExpired:
		return "expired"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Error is the engine's typed failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or 0 if err is not an engine error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func rateLimitedf(format string, args ...any) error {
	return &Error{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...)}
}

func expiredf(format string, args ...any) error {
	return &Error{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

func unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Message: "storage unavailable", Err: err}
}
