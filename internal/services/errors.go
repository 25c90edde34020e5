// Package services implements the business logic for app resolution, review
// acquisition, and analysis. This file centralizes the service-level error
// values so they can be consistently returned by service methods and mapped
// to HTTP results at the handler layer.
package services

import "errors"

var (
	// ErrAppNotFound indicates that neither a direct detail lookup nor a
	// search produced any candidate for the supplied identifier.
	ErrAppNotFound = errors.New("app not found")

	// ErrAmbiguousMatch indicates that search produced a candidate that
	// failed the match-acceptance heuristic; the closest candidate is
	// embedded in the wrapped message for diagnostics but is never used.
	ErrAmbiguousMatch = errors.New("search result does not match query")

	// ErrEmptyIdentifier is returned when the caller supplied no app
	// identifier at all.
	ErrEmptyIdentifier = errors.New("app identifier is required")
)
