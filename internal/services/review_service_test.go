package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// snapshotSpy records the async snapshot call so tests can assert on it.
type snapshotSpy struct {
	done    chan struct{}
	appID   string
	reviews []domain.Review
}

func newSnapshotSpy() *snapshotSpy {
	return &snapshotSpy{done: make(chan struct{}, 1)}
}

func (s *snapshotSpy) RecordSnapshotAsync(appID string, reviews []domain.Review) {
	s.appID = appID
	s.reviews = reviews
	s.done <- struct{}{}
}

func (s *snapshotSpy) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was never recorded")
	}
}

// testNow places "today" so that reviews dated 3-7 days back fall inside the
// reporting window.
var testNow = time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func rv(id string, score int, t time.Time) domain.Review {
	return domain.Review{ID: id, UserName: "u_" + id, Text: "text " + id, Score: score, Time: t}
}

func newReviewService(src *fakeSource) (*ReviewService, *snapshotSpy) {
	spy := newSnapshotSpy()
	return &ReviewService{
		Source:    src,
		Resolver:  &ResolveService{Source: src, Retry: fastRetry},
		Snapshots: spy,
		Retry:     fastRetry,
		Now:       func() time.Time { return testNow },
	}, spy
}

func TestFetch_MergesLanguagesInOrderAndDedupes(t *testing.T) {
	src := &fakeSource{reviews: map[string][]domain.Review{
		"com.example.loan|en": {rv("r1", 5, daysAgo(3)), rv("r2", 1, daysAgo(4))},
		"com.example.loan|es": {rv("r2", 1, daysAgo(4)), rv("r3", 4, daysAgo(5))},
	}}
	svc, spy := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{
		RawID:    "com.example.loan",
		Langs:    []string{"en", "es"},
		MinScore: 1,
		MaxScore: 5,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.TotalFetched != 3 {
		t.Fatalf("expected 3 after dedupe, got %d", res.TotalFetched)
	}
	want := []string{"r1", "r2", "r3"}
	if len(res.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(res.Items))
	}
	for i, id := range want {
		if res.Items[i].ID != id {
			t.Fatalf("item %d: expected %s, got %s", i, id, res.Items[i].ID)
		}
	}
	spy.wait(t)
}

func TestFetch_FailedLanguageDoesNotFailRequest(t *testing.T) {
	src := &fakeSource{
		reviews: map[string][]domain.Review{
			"com.example.loan|en": {rv("r1", 5, daysAgo(3))},
		},
		reviewErr: map[string]error{
			"com.example.loan|es": errors.New("socket hang up"),
		},
	}
	svc, _ := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{
		RawID:    "com.example.loan",
		Langs:    []string{"en", "es"},
		MinScore: 1,
		MaxScore: 5,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.TotalFetched != 1 || res.Items[0].ID != "r1" {
		t.Fatalf("expected the healthy language's reviews, got %+v", res.Items)
	}
}

func TestFetch_StatsCoverWindowOnly(t *testing.T) {
	src := &fakeSource{reviews: map[string][]domain.Review{
		"com.example.loan|en": {
			rv("in1", 5, daysAgo(3)),
			rv("in2", 1, daysAgo(6)),
			rv("out_recent", 2, daysAgo(1)), // newer than the window
			rv("out_old", 1, daysAgo(30)),   // older than the window
		},
	}}
	svc, _ := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{RawID: "com.example.loan", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if res.TotalFetched != 4 {
		t.Fatalf("TotalFetched = %d", res.TotalFetched)
	}
	if res.TotalInRange != 2 {
		t.Fatalf("TotalInRange = %d", res.TotalInRange)
	}
	if res.Stats.TotalInDateRange != 2 || res.Stats.BadInDateRange != 1 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.Stats.AvgScoreInDateRange != 3.0 {
		t.Fatalf("avg = %v", res.Stats.AvgScoreInDateRange)
	}
	if res.Stats.IsFallbackUsed {
		t.Fatal("fallback flag should stay false")
	}
}

func TestFetch_EmptyMergeTriggersOneResolveFallback(t *testing.T) {
	src := &fakeSource{
		hits: []domain.AppSummary{{AppID: "com.vendor.quickcash", Title: "QuickCash Loans"}},
		details: map[string]*domain.AppDetail{
			"com.vendor.quickcash": {AppID: "com.vendor.quickcash", Title: "QuickCash Loans"},
		},
		reviews: map[string][]domain.Review{
			"com.vendor.quickcash|en": {rv("r1", 5, daysAgo(3))},
		},
	}
	svc, spy := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{
		RawID:    "quickcash",
		Langs:    []string{"en"},
		MinScore: 1,
		MaxScore: 5,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.RealAppID != "com.vendor.quickcash" {
		t.Fatalf("RealAppID = %q", res.RealAppID)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected the re-resolved fetch's review, got %d items", len(res.Items))
	}
	// Display items are stamped with the identifier the caller asked about,
	// not the resolved one.
	if res.Items[0].AppID != "quickcash" {
		t.Fatalf("item appId = %q", res.Items[0].AppID)
	}
	spy.wait(t)
	if spy.appID != "com.vendor.quickcash" {
		t.Fatalf("snapshot recorded under %q", spy.appID)
	}
}

func TestFetch_UnresolvableIdentifierYieldsEmptyResult(t *testing.T) {
	src := &fakeSource{} // no details, no hits, no reviews
	svc, _ := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{RawID: "no.such.app", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("an unresolvable identifier should not fail the request: %v", err)
	}
	if len(res.Items) != 0 || res.Stats.TotalInDateRange != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestFetch_EmptyIdentifier(t *testing.T) {
	svc, _ := newReviewService(&fakeSource{})
	if _, err := svc.Fetch(context.Background(), ReviewQuery{RawID: " "}); !errors.Is(err, ErrEmptyIdentifier) {
		t.Fatalf("expected ErrEmptyIdentifier, got %v", err)
	}
}

func TestFetch_ScoreFilterAndLimit(t *testing.T) {
	src := &fakeSource{reviews: map[string][]domain.Review{
		"com.example.loan|en": {
			rv("a", 1, daysAgo(3)),
			rv("b", 2, daysAgo(3)),
			rv("c", 5, daysAgo(3)),
		},
	}}
	svc, _ := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{
		RawID:    "com.example.loan",
		Langs:    []string{"en"},
		MinScore: 1,
		MaxScore: 2,
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "a" {
		t.Fatalf("expected only the first low-score review, got %+v", res.Items)
	}
	// Stats are computed before the score filter and limit.
	if res.Stats.TotalInDateRange != 3 {
		t.Fatalf("stats should cover the whole window, got %+v", res.Stats)
	}
}

func TestFetch_DefaultScoreRangeShowsComplaintsOnly(t *testing.T) {
	src := &fakeSource{reviews: map[string][]domain.Review{
		"com.example.loan|en": {
			rv("bad1", 1, daysAgo(3)),
			rv("bad2", 2, daysAgo(4)),
			rv("mid", 3, daysAgo(4)),
			rv("good", 5, daysAgo(5)),
		},
	}}
	svc, _ := newReviewService(src)

	// No score bounds: the display list is the 1-2 star complaint band.
	res, err := svc.Fetch(context.Background(), ReviewQuery{RawID: "com.example.loan", Langs: []string{"en"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].ID != "bad1" || res.Items[1].ID != "bad2" {
		t.Fatalf("expected only the 1-2 star reviews, got %+v", res.Items)
	}
	// Stats still cover every in-window review regardless of score.
	if res.Stats.TotalInDateRange != 4 || res.Stats.BadInDateRange != 2 {
		t.Fatalf("stats: %+v", res.Stats)
	}
}

func TestFetch_FillsMissingFields(t *testing.T) {
	src := &fakeSource{reviews: map[string][]domain.Review{
		"com.example.loan|en": {
			{Text: "no id at all", Score: 3, Time: daysAgo(3)},
		},
	}}
	svc, spy := newReviewService(src)

	res, err := svc.Fetch(context.Background(), ReviewQuery{
		RawID:    "com.example.loan",
		Langs:    []string{"en"},
		MinScore: 1,
		MaxScore: 5,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if !strings.HasPrefix(res.Items[0].ID, "local_") {
		t.Fatalf("expected a generated id, got %q", res.Items[0].ID)
	}
	if res.Items[0].UserName != "anonymous" {
		t.Fatalf("userName = %q", res.Items[0].UserName)
	}
	spy.wait(t)
	if spy.reviews[0].ID == "" {
		t.Fatal("snapshot should see the generated id too")
	}
}

func TestDedupe_KeepsAllIDLessReviews(t *testing.T) {
	subsets := [][]domain.Review{
		{{ID: "", Text: "one"}, {ID: "x"}},
		{{ID: "", Text: "two"}, {ID: "x"}},
	}
	out := dedupe(subsets)
	if len(out) != 3 {
		t.Fatalf("expected 3 reviews (two id-less kept, one dup dropped), got %d", len(out))
	}
}
