// Analyze HTTP handler.
//
// POST /api/v1/analyze classifies a caller-supplied batch of review texts
// into complaint categories. The endpoint is pure computation: nothing is
// fetched and nothing is stored, so it can be used offline against exported
// review dumps.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewpulse/go-review-backend/internal/domain"
)

// ClassifierFunc adapts a plain classification function to the
// ReviewClassifier interface.
type ClassifierFunc func(reviews []domain.Review) []domain.Classification

// ClassifyAll implements ReviewClassifier.
func (f ClassifierFunc) ClassifyAll(reviews []domain.Review) []domain.Classification {
	return f(reviews)
}

// AnalyzeReviewInput is one review to classify. Only ID and Text matter;
// IDs are echoed so callers can join results back to their input.
type AnalyzeReviewInput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AnalyzeRequest is the JSON payload for POST /analyze.
type AnalyzeRequest struct {
	Reviews []AnalyzeReviewInput `json:"reviews" binding:"required"`
}

// AnalyzeResponse is the success envelope for POST /analyze. Results are in
// input order.
type AnalyzeResponse struct {
	Status  string                  `json:"status"`
	Results []domain.Classification `json:"results"`
}

// maxAnalyzeBatch bounds one classification request.
const maxAnalyzeBatch = 5000

// AnalyzeReviews handles POST /api/v1/analyze.
func (h *Handlers) AnalyzeReviews(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object with a reviews array")
		return
	}
	if len(req.Reviews) > maxAnalyzeBatch {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "too many reviews in one request")
		return
	}

	reviews := make([]domain.Review, len(req.Reviews))
	for i, in := range req.Reviews {
		reviews[i] = domain.Review{ID: in.ID, Text: in.Text}
	}

	ok(c, http.StatusOK, AnalyzeResponse{
		Status:  StatusSuccess,
		Results: h.classifier.ClassifyAll(reviews),
	})
}
