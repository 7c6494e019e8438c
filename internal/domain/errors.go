package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrVesselNotFound is returned when a query cannot be resolved to a vessel key.
	ErrVesselNotFound = errors.New("vessel not found")

	// ErrNoPositionData is returned when the position provider answered without a usable fix.
	ErrNoPositionData = errors.New("no position data found for this vessel")

	// ErrInferenceUnavailable is returned by the anomaly adapter on any failure.
	ErrInferenceUnavailable = errors.New("inference service unavailable")

	// ErrHistoryUnsupported is returned when no configured history store can be listed.
	ErrHistoryUnsupported = errors.New("history listing is not supported by the configured store")
)

// NotFoundError describes why a query could not be resolved.
type NotFoundError struct {
	Query  string
	Reason string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("vessel %q not found: %s", e.Query, e.Reason)
}

// Is lets errors.Is match ErrVesselNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrVesselNotFound }

// FailureClass is the provider-agnostic outcome of an upstream call.
type FailureClass int

const (
	FailureNone FailureClass = iota
	FailureRateLimited
	FailureUpstreamUnavailable
	FailureInvalidResponse
)

func (c FailureClass) String() string {
	switch c {
	case FailureNone:
		return "none"
	case FailureRateLimited:
		return "rate_limited"
	case FailureUpstreamUnavailable:
		return "upstream_unavailable"
	case FailureInvalidResponse:
		return "invalid_response"
	default:
		return fmt.Sprintf("failure_class(%d)", int(c))
	}
}

// Degradable reports whether the class triggers mock substitution for the position provider.
func (c FailureClass) Degradable() bool {
	return c == FailureRateLimited || c == FailureUpstreamUnavailable
}

// ProviderError is the error shape every provider adapter returns.
type ProviderError struct {
	Provider string
	Class    FailureClass
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, class FailureClass, err error) *ProviderError {
	return &ProviderError{Provider: provider, Class: class, Err: err}
}

// ClassOf extracts the failure class from err. Errors that do not carry a class
// are treated as UpstreamUnavailable.
func ClassOf(err error) FailureClass {
	if err == nil {
		return FailureNone
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return FailureUpstreamUnavailable
}
