// Package source defines the ReviewSource capability consumed by the
// resolution and fetch layers, and provides an HTTP client implementation
// that talks to a scraper gateway. The package does not retry and does not
// log: retries are applied by callers through the retry wrapper, which
// classifies failures by error message content, so errors returned here
// preserve the underlying transport text.
package source

import (
	"context"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// SortOrder selects the review ordering requested from the store.
type SortOrder int

const (
	// SortNewest requests reviews newest first. It is the only ordering the
	// pipeline uses; the value mirrors the store's wire constant.
	SortNewest SortOrder = 2
)

// ReviewSource is the black-box capability for the underlying app store.
// All three operations may fail on network/transport problems; the error
// message is the only channel available for transient classification.
type ReviewSource interface {
	// FetchAppDetail looks up the detail record for a canonical app ID.
	FetchAppDetail(ctx context.Context, appID, country, lang string) (*domain.AppDetail, error)

	// SearchApps runs a free-text search and returns up to limit hits.
	SearchApps(ctx context.Context, term, country, lang string, limit int) ([]domain.AppSummary, error)

	// FetchReviews returns up to limit reviews for the app in one language.
	FetchReviews(ctx context.Context, appID, country, lang string, sort SortOrder, limit int) ([]domain.Review, error)
}
