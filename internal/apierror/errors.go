// Package apierror defines the error taxonomy shared by services and
// handlers. Every failure site produces a tagged *Error; handlers map the
// kind to an HTTP status without inspecting the wrapped cause.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-checkable classification of a failure.
type Kind string

const (
	KindUnauthenticated       Kind = "unauthenticated"
	KindInvalidKeyFormat      Kind = "invalid_key_format"
	KindKeyNotFound           Kind = "key_not_found"
	KindForbiddenOwnership    Kind = "forbidden_ownership"
	KindRateLimitExceeded     Kind = "rate_limit_exceeded"
	KindMalformedRepoURL      Kind = "malformed_repository_url"
	KindUpstreamFetchFailed   Kind = "upstream_fetch_failed"
	KindUpstreamQuotaExceeded Kind = "upstream_quota_exceeded"
	KindServiceMisconfigured  Kind = "service_misconfigured"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindUnknown               Kind = "unknown"
)

// Error is a classified failure. Message is safe to return to callers;
// the wrapped cause is for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// UpstreamStatus is set for KindUpstreamFetchFailed so the handler can
	// propagate the upstream status code.
	UpstreamStatus int

	// Usage and Limit are set for KindRateLimitExceeded.
	Usage int32
	Limit int32
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated, KindKeyNotFound:
		return http.StatusUnauthorized
	case KindInvalidKeyFormat, KindMalformedRepoURL:
		return http.StatusBadRequest
	case KindForbiddenOwnership:
		return http.StatusForbidden
	case KindRateLimitExceeded, KindUpstreamQuotaExceeded:
		return http.StatusTooManyRequests
	case KindUpstreamFetchFailed:
		if e.UpstreamStatus != 0 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a classified error with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// RateLimited creates a KindRateLimitExceeded error carrying the
// usage/limit pair for diagnostics.
func RateLimited(usage, limit int32) *Error {
	return &Error{
		Kind:    KindRateLimitExceeded,
		Message: fmt.Sprintf("monthly usage limit reached (%d/%d)", usage, limit),
		Usage:   usage,
		Limit:   limit,
	}
}

// UpstreamFetch creates a KindUpstreamFetchFailed error carrying the
// upstream status code.
func UpstreamFetch(status int, message string) *Error {
	return &Error{Kind: KindUpstreamFetchFailed, Message: message, UpstreamStatus: status}
}

// FromError extracts a classified error, or wraps err as KindUnknown.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(KindUnknown, "An unexpected error occurred", err)
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
