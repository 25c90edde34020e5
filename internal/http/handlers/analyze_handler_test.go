package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

func TestAnalyzeReviews_BindingError(t *testing.T) {
	cl := ClassifierFunc(func([]domain.Review) []domain.Classification {
		t.Fatal("classifier should not run on binding error")
		return nil
	})
	h := New(stubResolver{}, stubFetcher{}, cl, stubRetention{})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(`{"nope":true}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeReviews_Success(t *testing.T) {
	cl := ClassifierFunc(func(reviews []domain.Review) []domain.Classification {
		out := make([]domain.Classification, len(reviews))
		for i, r := range reviews {
			out[i] = domain.Classification{ID: r.ID, Category: domain.CategoryForce, Confidence: 0.98}
		}
		return out
	})
	h := New(stubResolver{}, stubFetcher{}, cl, stubRetention{})
	r := newTestRouter(h)

	body := `{"reviews":[{"id":"a","text":"they deducted money without my consent"},{"id":"b","text":"ok"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Status != StatusSuccess {
		t.Fatalf("status field = %q", resp.Status)
	}
	// Results come back in input order with IDs echoed.
	if len(resp.Results) != 2 || resp.Results[0].ID != "a" || resp.Results[1].ID != "b" {
		t.Fatalf("results: %+v", resp.Results)
	}
}

func TestAnalyzeReviews_BatchCap(t *testing.T) {
	h := New(stubResolver{}, stubFetcher{}, nopClassifier, stubRetention{})
	r := newTestRouter(h)

	reviews := make([]AnalyzeReviewInput, maxAnalyzeBatch+1)
	raw, err := json.Marshal(AnalyzeRequest{Reviews: reviews})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized batch, got %d", w.Code)
	}
}
