package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/retry"
	"github.com/reviewpulse/go-review-backend/internal/source"
)

// fakeSource is a scriptable ReviewSource shared by the service tests.
type fakeSource struct {
	details   map[string]*domain.AppDetail
	hits      []domain.AppSummary
	searchErr error
	// reviews is keyed by appID + "|" + lang.
	reviews    map[string][]domain.Review
	reviewErr  map[string]error
	detailHits atomic.Int32
	searchHits atomic.Int32
}

func (f *fakeSource) FetchAppDetail(_ context.Context, appID, _, _ string) (*domain.AppDetail, error) {
	f.detailHits.Add(1)
	if d, ok := f.details[appID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("gateway returned status 404 for %s", appID)
}

func (f *fakeSource) SearchApps(_ context.Context, _, _, _ string, _ int) ([]domain.AppSummary, error) {
	f.searchHits.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeSource) FetchReviews(_ context.Context, appID, _, lang string, _ source.SortOrder, _ int) ([]domain.Review, error) {
	key := appID + "|" + lang
	if err := f.reviewErr[key]; err != nil {
		return nil, err
	}
	return f.reviews[key], nil
}

// fastRetry keeps tests quick while exercising the real retry path.
var fastRetry = retry.Config{Attempts: 2, Delay: time.Millisecond}

func TestResolve_DirectIDHit(t *testing.T) {
	src := &fakeSource{details: map[string]*domain.AppDetail{
		"com.example.loan": {AppID: "com.example.loan", Title: "Example Loan"},
	}}
	svc := &ResolveService{Source: src, Retry: fastRetry}

	got, err := svc.Resolve(context.Background(), "com.example.loan", "ph", "en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AppID != "com.example.loan" {
		t.Fatalf("unexpected detail: %+v", got)
	}
	if n := src.searchHits.Load(); n != 0 {
		t.Fatalf("search should not run on direct hit, ran %d times", n)
	}
}

func TestResolve_NameFallsBackToSearch(t *testing.T) {
	src := &fakeSource{
		details: map[string]*domain.AppDetail{
			"com.vendor.quickcash": {AppID: "com.vendor.quickcash", Title: "QuickCash - Fast Loans"},
		},
		hits: []domain.AppSummary{{AppID: "com.vendor.quickcash", Title: "QuickCash - Fast Loans"}},
	}
	svc := &ResolveService{Source: src, Retry: fastRetry}

	got, err := svc.Resolve(context.Background(), "quickcash", "ph", "en")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AppID != "com.vendor.quickcash" {
		t.Fatalf("resolved wrong app: %+v", got)
	}
}

func TestResolve_RejectsUnrelatedTopHit(t *testing.T) {
	src := &fakeSource{
		hits: []domain.AppSummary{{AppID: "com.other.game", Title: "Bubble Pop Saga"}},
	}
	svc := &ResolveService{Source: src, Retry: fastRetry}

	_, err := svc.Resolve(context.Background(), "quickcash", "ph", "en")
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	// The closest candidate is surfaced for diagnostics.
	if want := "Bubble Pop Saga"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error should name the rejected candidate, got %q", err)
	}
}

func TestResolve_NoHits(t *testing.T) {
	src := &fakeSource{}
	svc := &ResolveService{Source: src, Retry: fastRetry}

	_, err := svc.Resolve(context.Background(), "nonexistent app", "ph", "en")
	if !errors.Is(err, ErrAppNotFound) {
		t.Fatalf("expected ErrAppNotFound, got %v", err)
	}
}

func TestResolve_EmptyIdentifier(t *testing.T) {
	svc := &ResolveService{Source: &fakeSource{}, Retry: fastRetry}
	if _, err := svc.Resolve(context.Background(), "   ", "ph", "en"); !errors.Is(err, ErrEmptyIdentifier) {
		t.Fatalf("expected ErrEmptyIdentifier, got %v", err)
	}
}

func TestResolve_TransientSearchFailureIsRetried(t *testing.T) {
	src := &fakeSource{searchErr: errors.New("read tcp: connection reset by peer")}
	svc := &ResolveService{Source: src, Retry: fastRetry}

	_, err := svc.Resolve(context.Background(), "quickcash", "ph", "en")
	if err == nil {
		t.Fatal("expected error")
	}
	if n := src.searchHits.Load(); n != 2 {
		t.Fatalf("transient search error should be retried, got %d attempts", n)
	}
}

func TestNormalizeIdentifier_FoldsToNFC(t *testing.T) {
	composed := "Café Loans"
	decomposed := "Cafe\u0301 Loans"
	if NormalizeIdentifier(composed) != NormalizeIdentifier(decomposed) {
		t.Fatal("composed and decomposed forms should normalize identically")
	}
}

func TestMatchAccepted(t *testing.T) {
	cases := []struct {
		query string
		hit   domain.AppSummary
		want  bool
	}{
		{"quickcash", domain.AppSummary{AppID: "com.v.qc", Title: "QuickCash Loans"}, true},
		{"quickcash", domain.AppSummary{AppID: "com.vendor.quickcash", Title: "QC"}, true},
		{"com.vendor.quickcash extra", domain.AppSummary{AppID: "com.vendor.quickcash", Title: "QC"}, true},
		{"quickcash", domain.AppSummary{AppID: "com.other.game", Title: "Bubble Pop"}, false},
	}
	for _, c := range cases {
		if got := matchAccepted(c.query, c.hit); got != c.want {
			t.Errorf("matchAccepted(%q, %+v) = %v, want %v", c.query, c.hit, got, c.want)
		}
	}
}

func TestPrimaryLang(t *testing.T) {
	if got := PrimaryLang("EN, es, fil"); got != "en" {
		t.Fatalf("PrimaryLang = %q", got)
	}
	if got := PrimaryLang(""); got != "" {
		t.Fatalf("PrimaryLang(empty) = %q", got)
	}
}
