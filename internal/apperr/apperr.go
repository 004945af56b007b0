// Package apperr defines the machine-readable error kinds shared by storage,
// services and edge handlers. Callers switch on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindUnauthenticated
	KindNotAuthorized
	KindNotFound
	KindDuplicateKey
	KindConflict
	KindRateLimited
	KindQuotaExceeded
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindInvalidArgument: "invalid_argument",
	KindUnauthenticated: "unauthenticated",
	KindNotAuthorized:   "not_authorized",
	KindNotFound:        "not_found",
	KindDuplicateKey:    "duplicate_key",
	KindConflict:        "conflict",
	KindRateLimited:     "rate_limited",
	KindQuotaExceeded:   "quota_exceeded",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Error is a classified error. Detail is safe to show to the caller; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Detail == "" {
			return e.Err.Error()
		}
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted detail message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(kind Kind, err error, detail string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func NotAuthorized(format string, args ...any) *Error {
	return New(KindNotAuthorized, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message for err. Unclassified errors are
// reported generically so internal details do not leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Kind != KindUnknown && e.Err != nil {
			return e.Err.Error()
		}
	}
	return "internal error"
}

// HTTPStatus maps err to the status code the edge handlers answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotAuthorized, KindQuotaExceeded:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicateKey, KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ConnectCode maps a kind to the Connect status code.
func ConnectCode(kind Kind) connect.Code {
	switch kind {
	case KindInvalidArgument:
		return connect.CodeInvalidArgument
	case KindUnauthenticated:
		return connect.CodeUnauthenticated
	case KindNotAuthorized:
		return connect.CodePermissionDenied
	case KindNotFound:
		return connect.CodeNotFound
	case KindDuplicateKey:
		return connect.CodeAlreadyExists
	case KindConflict:
		return connect.CodeFailedPrecondition
	case KindRateLimited, KindQuotaExceeded:
		return connect.CodeResourceExhausted
	default:
		return connect.CodeInternal
	}
}

// ToConnect converts err into a *connect.Error. Existing Connect errors pass
// through untouched.
func ToConnect(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	kind := KindOf(err)
	return connect.NewError(ConnectCode(kind), errors.New(Message(err)))
}
