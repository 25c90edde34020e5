// Package handlers defines the HTTP-layer error codes used across endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them for
// programmatic error handling. Generic codes mirror common HTTP status
// semantics; domain-specific codes cover failures a status alone cannot
// convey — most importantly the distinction between "the app does not exist"
// and "the app store could not be reached", which call for very different
// operator responses (nothing vs. check the network/proxy).

package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeUpstreamUnreachable = "upstream_unreachable"
	ErrCodeAmbiguousMatch      = "ambiguous_match"
	ErrCodeAnalyzeFailed       = "analyze_failed"
	ErrCodeRetentionFailed     = "retention_failed"
	ErrCodeMethodNotAllowed    = "method_not_allowed"
)
