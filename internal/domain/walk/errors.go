package walk

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. Every failure surfaced to the
// presentation layer carries exactly one kind.
type ErrorKind string

const (
	// ErrParse means the place extractor returned something other than a
	// departure line and a destination line.
	ErrParse ErrorKind = "parse_error"
	// ErrNotFound means the geocoder returned no candidate for a place name.
	ErrNotFound ErrorKind = "not_found"
	// ErrRouteNotFound means the routing engine returned no usable leg.
	ErrRouteNotFound ErrorKind = "route_not_found"
	// ErrDecode means the routing engine's encoded polyline was malformed.
	ErrDecode ErrorKind = "decode_error"
	// ErrGeometry means the route geometry was too degenerate to bound.
	ErrGeometry ErrorKind = "geometry_error"
	// ErrFetch means the imagery fetch failed (network or non-2xx).
	ErrFetch ErrorKind = "fetch_error"
	// ErrService is a generic upstream transport or non-success failure.
	ErrService ErrorKind = "service_error"
)

// DomainError is the error type for all pipeline failures.
type DomainError struct {
	kind  ErrorKind
	msg   string
	cause error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the underlying cause, if any.
func (e *DomainError) Unwrap() error { return e.cause }

// Kind returns the error classification.
func (e *DomainError) Kind() ErrorKind { return e.kind }

// NewParseError reports malformed extractor output.
func NewParseError(msg string) *DomainError {
	return &DomainError{kind: ErrParse, msg: msg}
}

// NewNotFoundError reports an empty geocoding candidate list for place.
func NewNotFoundError(place string) *DomainError {
	return &DomainError{kind: ErrNotFound, msg: fmt.Sprintf("no geocoding match for %q", place)}
}

// NewRouteNotFoundError reports a routing response with no usable leg.
func NewRouteNotFoundError(msg string) *DomainError {
	return &DomainError{kind: ErrRouteNotFound, msg: msg}
}

// NewDecodeError reports a malformed encoded polyline.
func NewDecodeError(msg string) *DomainError {
	return &DomainError{kind: ErrDecode, msg: msg}
}

// NewGeometryError reports a geometry too degenerate to derive bounds from.
func NewGeometryError(msg string) *DomainError {
	return &DomainError{kind: ErrGeometry, msg: msg}
}

// NewFetchError reports a failed imagery fetch.
func NewFetchError(msg string, cause error) *DomainError {
	return &DomainError{kind: ErrFetch, msg: msg, cause: cause}
}

// NewServiceError reports a generic upstream failure.
func NewServiceError(msg string, cause error) *DomainError {
	return &DomainError{kind: ErrService, msg: msg, cause: cause}
}

// KindOf extracts the classification from err. Errors that are not
// DomainErrors are treated as generic service failures.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind()
	}
	return ErrService
}
