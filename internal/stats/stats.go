// Package stats filters merged reviews into the fixed historical date window
// and computes aggregate statistics over the filtered set. Like the rest of
// the pure computation layer it is deterministic, concurrency-safe, and does
// not log.
//
// The window is anchored to "now": it always spans from 8 days ago
// (day-start) to 2 days ago (day-end), inclusive. An empty window yields
// zero-valued stats and an empty display list; stale out-of-window data is
// never substituted.
package stats

import (
	"math"
	"time"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// Window offsets, in days before now. End precedes start chronologically
// as an offset, so Start <= End always holds.
const (
	windowStartOffsetDays = 8
	windowEndOffsetDays   = 2
)

// Display list truncation bounds.
const (
	MinLimit = 1
	MaxLimit = 1000
)

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the window start formatted as YYYY-MM-DD.
func (w Window) StartDate() string { return w.Start.Format("2006-01-02") }

// EndDate returns the window end formatted as YYYY-MM-DD.
func (w Window) EndDate() string { return w.End.Format("2006-01-02") }

// Contains reports whether t falls inside the window, inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CurrentWindow computes the review window relative to now: start is 8 days
// ago at day-start, end is 2 days ago at day-end.
func CurrentWindow(now time.Time) Window {
	start := now.AddDate(0, 0, -windowStartOffsetDays)
	end := now.AddDate(0, 0, -windowEndOffsetDays)
	return Window{
		Start: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		End:   time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), end.Location()),
	}
}

// FilterWindow returns the reviews whose timestamp falls inside w,
// preserving input order.
func FilterWindow(reviews []domain.Review, w Window) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if w.Contains(r.Time) {
			out = append(out, r)
		}
	}
	return out
}

// Compute derives aggregate statistics from an already window-filtered set.
// The average is over all scores in the set (1..5) and is 0 when the set is
// empty; bad counts reviews with score <= 2.
func Compute(reviews []domain.Review) domain.Stats {
	s := domain.Stats{TotalInDateRange: len(reviews)}
	if len(reviews) == 0 {
		return s
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Score
		if r.Score <= 2 {
			s.BadInDateRange++
		}
	}
	s.AvgScoreInDateRange = round2(float64(sum) / float64(len(reviews)))
	return s
}

// FilterScoreRange keeps reviews whose score lies in [minScore, maxScore],
// preserving input order.
func FilterScoreRange(reviews []domain.Review, minScore, maxScore int) []domain.Review {
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Score >= minScore && r.Score <= maxScore {
			out = append(out, r)
		}
	}
	return out
}

// ClampLimit coerces a requested display limit into [MinLimit, MaxLimit].
// Non-positive values mean "no preference" and resolve to the maximum.
func ClampLimit(n int) int {
	if n <= 0 {
		return MaxLimit
	}
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// DisplayItems truncates reviews to limit and converts them to the client
// shape: each item is re-stamped with the caller's originally supplied app
// identifier for client-side continuity, and the timestamp is rendered
// date-only when it carries a time-of-day component.
func DisplayItems(reviews []domain.Review, requestedAppID string, limit int) []domain.ReviewItem {
	limit = ClampLimit(limit)
	if limit > len(reviews) {
		limit = len(reviews)
	}
	out := make([]domain.ReviewItem, 0, limit)
	for _, r := range reviews[:limit] {
		out = append(out, domain.ReviewItem{
			ID:       r.ID,
			AppID:    requestedAppID,
			UserName: r.UserName,
			Text:     r.Text,
			Score:    r.Score,
			Time:     renderTime(r.Time),
		})
	}
	return out
}

// renderTime formats t date-only when it carries a time-of-day component,
// otherwise as the full RFC 3339 timestamp.
func renderTime(t time.Time) string {
	h, m, s := t.Clock()
	if h != 0 || m != 0 || s != 0 || t.Nanosecond() != 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
