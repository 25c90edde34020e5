// Package services – ReviewService
//
// This file implements the fetch orchestrator and the request-level flow
// around it: reviews are fetched concurrently for every requested language,
// merged and deduplicated by review ID, filtered into the fixed historical
// date window, and aggregated into stats. When the merged set comes back
// empty the orchestrator re-resolves the identifier once (users often type
// an app name instead of a package ID) and retries the whole fetch — at
// most once per request, so a bad identifier cannot loop.
//
// A snapshot of the full unfiltered merge is handed to the retention
// tracker after the response is assembled, detached from the request path.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/retry"
	"github.com/reviewpulse/go-review-backend/internal/source"
	"github.com/reviewpulse/go-review-backend/internal/stats"
)

// DefaultFetchCap is the per-language review fetch limit.
const DefaultFetchCap = 1000

// fetchResults counts per-language fetch outcomes against the review source.
var fetchResults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_fetch_total",
		Help: "Per-language review fetch attempts by outcome.",
	},
	[]string{"lang", "outcome"},
)

func init() {
	prometheus.MustRegister(fetchResults)
}

// SnapshotRecorder is the retention-tracker capability the review flow
// depends on. The call is fire-and-forget.
type SnapshotRecorder interface {
	RecordSnapshotAsync(appID string, reviews []domain.Review)
}

// Resolver re-resolves an identifier when a fetch comes back empty.
type Resolver interface {
	Resolve(ctx context.Context, rawID, country, lang string) (*domain.AppDetail, error)
}

// ReviewService fetches, merges, windows, and aggregates reviews.
type ReviewService struct {
	// Source is the review-source capability.
	Source source.ReviewSource
	// Resolver maps free-text identifiers to canonical IDs for the
	// one-shot empty-merge fallback.
	Resolver Resolver
	// Snapshots receives the unfiltered merged set after each fetch.
	// Optional; nil disables retention recording.
	Snapshots SnapshotRecorder
	// Retry bounds every outbound call.
	Retry retry.Config
	// FetchCap is the per-language fetch limit; 0 means DefaultFetchCap.
	FetchCap int
	// Now is the clock; nil means time.Now. Injected for tests.
	Now func() time.Time
}

// ReviewQuery carries one request's parameters. RawID is kept as supplied
// (post NFC normalization) so display items can be re-stamped with it.
type ReviewQuery struct {
	RawID    string
	Country  string
	Langs    []string
	MinScore int
	MaxScore int
	Limit    int
}

// ReviewResult is the assembled response for one review query.
type ReviewResult struct {
	Items []domain.ReviewItem
	Stats domain.Stats
	Range stats.Window

	// Diagnostics relayed in the response's debug block.
	TotalFetched int
	TotalInRange int
	RealAppID    string
}

// Fetch runs the full pipeline for one query.
func (s *ReviewService) Fetch(ctx context.Context, q ReviewQuery) (*ReviewResult, error) {
	rawID := NormalizeIdentifier(q.RawID)
	if rawID == "" {
		return nil, ErrEmptyIdentifier
	}
	country := strings.ToLower(q.Country)

	realID := rawID
	merged := s.fetchAll(ctx, realID, country, q.Langs)

	// One-shot fallback: an empty merge usually means the identifier is a
	// display name, not a package ID. Re-resolve and refetch exactly once.
	if len(merged) == 0 && s.Resolver != nil {
		detail, err := s.Resolver.Resolve(ctx, rawID, country, PrimaryLang(strings.Join(q.Langs, ",")))
		switch {
		case err == nil:
			realID = detail.AppID
			merged = s.fetchAll(ctx, realID, country, q.Langs)
		case errors.Is(err, ErrAppNotFound), errors.Is(err, ErrAmbiguousMatch):
			// No usable candidate; proceed with the empty set.
			log.Warn().Err(err).Str("app_id", rawID).Msg("empty fetch and no resolvable fallback")
		default:
			return nil, err
		}
	}

	merged = fillDefaults(merged, realID, s.now())

	// The display list defaults to the complaint band (1-2 stars); higher
	// scores still count toward the window stats.
	minScore, maxScore := q.MinScore, q.MaxScore
	if minScore <= 0 {
		minScore = 1
	}
	if maxScore <= 0 {
		maxScore = 2
	}

	window := stats.CurrentWindow(s.now())
	inRange := stats.FilterWindow(merged, window)
	display := stats.FilterScoreRange(inRange, minScore, maxScore)

	res := &ReviewResult{
		Items:        stats.DisplayItems(display, rawID, q.Limit),
		Stats:        stats.Compute(inRange),
		Range:        window,
		TotalFetched: len(merged),
		TotalInRange: len(inRange),
		RealAppID:    realID,
	}

	// Retention snapshot: full merged set, off the critical path, outcome
	// never observed by this request.
	if s.Snapshots != nil {
		s.Snapshots.RecordSnapshotAsync(realID, merged)
	}
	return res, nil
}

// fetchAll retrieves reviews for every requested language concurrently and
// merges them. A failing language yields an empty subset and never fails
// the merge; subsets are concatenated in request-language order before
// deduplication.
func (s *ReviewService) fetchAll(ctx context.Context, appID, country string, langs []string) []domain.Review {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	limit := s.FetchCap
	if limit <= 0 {
		limit = DefaultFetchCap
	}

	subsets := make([][]domain.Review, len(langs))
	var g errgroup.Group
	for i, lang := range langs {
		lang := strings.ToLower(strings.TrimSpace(lang))
		g.Go(func() error {
			reviews, err := retry.Do(ctx, s.Retry, func(ctx context.Context) ([]domain.Review, error) {
				return s.Source.FetchReviews(ctx, appID, country, lang, source.SortNewest, limit)
			})
			if err != nil {
				// Failure is local to this language.
				fetchResults.WithLabelValues(lang, "error").Inc()
				log.Warn().Err(err).Str("app_id", appID).Str("lang", lang).Msg("language fetch failed")
				return nil
			}
			fetchResults.WithLabelValues(lang, "ok").Inc()
			subsets[i] = reviews
			return nil
		})
	}
	_ = g.Wait() // never errors: per-language failures are absorbed above

	return dedupe(subsets)
}

// dedupe concatenates the per-language subsets in order and removes
// duplicate review IDs, keeping the first occurrence. Reviews without an ID
// are always kept: absence of an ID means "cannot dedupe".
func dedupe(subsets [][]domain.Review) []domain.Review {
	total := 0
	for _, s := range subsets {
		total += len(s)
	}
	seen := make(map[string]struct{}, total)
	out := make([]domain.Review, 0, total)
	for _, subset := range subsets {
		for _, r := range subset {
			if r.ID != "" {
				if _, dup := seen[r.ID]; dup {
					continue
				}
				seen[r.ID] = struct{}{}
			}
			out = append(out, r)
		}
	}
	return out
}

// fillDefaults stamps the canonical app ID on every review and substitutes
// generated IDs, a placeholder user name, and the current time where the
// source left fields absent. Generated IDs let the retention tracker and
// clients address reviews the source did not identify.
func fillDefaults(reviews []domain.Review, appID string, now time.Time) []domain.Review {
	for i := range reviews {
		reviews[i].AppID = appID
		if reviews[i].ID == "" {
			reviews[i].ID = "local_" + uuid.NewString()
		}
		if reviews[i].UserName == "" {
			reviews[i].UserName = "anonymous"
		}
		if reviews[i].Time.IsZero() {
			reviews[i].Time = now
		}
	}
	return reviews
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
