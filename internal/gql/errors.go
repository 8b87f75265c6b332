// Package gql provides the GraphQL transport for the Worlds admin API
// with retry, backoff, and error classification.
package gql

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed API operation. Callers switch on the kind to
// decide retry eligibility and recovery action instead of matching on
// error strings.
type Kind int

const (
	// KindGeneric is the catch-all for auth failures that fit no other kind.
	KindGeneric Kind = iota
	KindInvalidCredentials
	KindTokenExpired
	KindTokenInvalid
	KindTokenRefreshFailed
	KindUserNotFound
	KindNetwork
	KindServer
	KindValidation
)

// String returns a stable name for logging. Not part of the wire format.
func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTokenExpired:
		return "token_expired"
	case KindTokenInvalid:
		return "token_invalid"
	case KindTokenRefreshFailed:
		return "token_refresh_failed"
	case KindUserNotFound:
		return "user_not_found"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "auth_error"
	}
}

// Retryable reports whether an operation that failed with this kind may be
// attempted again. Credential and token problems will not heal on retry;
// everything else might.
func (k Kind) Retryable() bool {
	switch k {
	case KindInvalidCredentials, KindTokenExpired, KindTokenInvalid, KindValidation:
		return false
	default:
		return true
	}
}

// Error is a classified API failure. Message is human-readable; Err holds
// the underlying cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gql: %s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("gql: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf constructs a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err. Unclassified errors report
// KindGeneric and ok=false.
func KindOf(err error) (Kind, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind, true
	}

	return KindGeneric, false
}

// HasKind reports whether err carries the given classification.
func HasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)

	return ok && k == kind
}

// retryable reports whether err should be retried. Unclassified errors
// (raw transport failures) are retryable.
func retryable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return true
	}

	return k.Retryable()
}

// classifyStatus maps a non-2xx HTTP status to an error kind.
func classifyStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindTokenInvalid
	case code == http.StatusNotFound:
		return KindUserNotFound
	case code >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindNetwork
	}
}

// classifyMessage maps a GraphQL error message to an error kind by
// substring. The backend exposes no structured error codes, so this is the
// only signal available on 2xx responses; replace with code matching if
// the schema ever grows codes.
func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "expired"):
		return KindTokenExpired
	case strings.Contains(lower, "invalid"):
		return KindTokenInvalid
	case strings.Contains(lower, "credentials"):
		return KindInvalidCredentials
	default:
		return KindGeneric
	}
}
