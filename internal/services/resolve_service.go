// Package services – ResolveService
//
// This file implements the Resolution Engine: it maps whatever identifier a
// user supplied — an exact package ID or a free-text app name — to the
// store's canonical record. A direct detail lookup is tried first; when it
// fails, a single-result search is attempted and the hit is accepted only
// when it passes a substring match heuristic, which guards against scraping
// an unrelated app just because it ranked first.
//
// Identifiers are normalized to Unicode NFC before any comparison so that
// visually identical accented names arriving from different input sources
// compare equal.
package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/retry"
	"github.com/reviewpulse/go-review-backend/internal/source"
)

// ResolveService resolves user-supplied app identifiers to canonical store
// records.
type ResolveService struct {
	// Source is the review-source capability.
	Source source.ReviewSource
	// Retry bounds every outbound call.
	Retry retry.Config
}

// NewResolveService constructs a ResolveService with the default retry
// policy.
func NewResolveService(src source.ReviewSource) *ResolveService {
	return &ResolveService{Source: src}
}

// Resolve maps rawID (package ID or free-text name) to the canonical app
// detail record. Returns ErrAppNotFound when no candidate exists and
// ErrAmbiguousMatch when the best search hit fails the acceptance
// heuristic.
func (s *ResolveService) Resolve(ctx context.Context, rawID, country, lang string) (*domain.AppDetail, error) {
	rawID = NormalizeIdentifier(rawID)
	if rawID == "" {
		return nil, ErrEmptyIdentifier
	}
	country = strings.ToLower(country)
	lang = PrimaryLang(lang)

	detail, directErr := retry.Do(ctx, s.Retry, func(ctx context.Context) (*domain.AppDetail, error) {
		return s.Source.FetchAppDetail(ctx, rawID, country, lang)
	})
	if directErr == nil {
		return detail, nil
	}

	// The identifier is probably a name, not a package ID. Search for it
	// and accept the top hit only when it plausibly refers to the query.
	hits, err := retry.Do(ctx, s.Retry, func(ctx context.Context) ([]domain.AppSummary, error) {
		return s.Source.SearchApps(ctx, rawID, country, lang, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("search for %q: %w", rawID, err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, rawID)
	}

	best := hits[0]
	if !matchAccepted(rawID, best) {
		return nil, fmt.Errorf("%w: query %q, closest candidate %q (%s)",
			ErrAmbiguousMatch, rawID, best.Title, best.AppID)
	}

	detail, err = retry.Do(ctx, s.Retry, func(ctx context.Context) (*domain.AppDetail, error) {
		return s.Source.FetchAppDetail(ctx, best.AppID, country, lang)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch detail for %s: %w", best.AppID, err)
	}
	return detail, nil
}

// matchAccepted applies the acceptance heuristic: the lower-cased query must
// be a substring of the candidate title or of its canonical ID, or the
// canonical ID must be a substring of the query.
func matchAccepted(query string, candidate domain.AppSummary) bool {
	q := strings.ToLower(query)
	title := strings.ToLower(candidate.Title)
	id := strings.ToLower(candidate.AppID)
	return strings.Contains(title, q) || strings.Contains(id, q) || strings.Contains(q, id)
}

// NormalizeIdentifier trims an identifier and folds it to Unicode composed
// form (NFC).
func NormalizeIdentifier(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// PrimaryLang extracts the first entry of a comma-separated language list,
// lower-cased. The detail and search operations accept a single language
// only.
func PrimaryLang(lang string) string {
	first, _, _ := strings.Cut(lang, ",")
	return strings.ToLower(strings.TrimSpace(first))
}
