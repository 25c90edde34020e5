// Retention HTTP handler.
//
// GET /api/v1/retention-stats reports day-over-day survival of high-score
// review IDs for an app, computed from the snapshots that review fetches
// record as a side effect.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/services"
)

// RetentionResponse is the success envelope for GET /retention-stats.
type RetentionResponse struct {
	Status string                  `json:"status"`
	Data   *domain.RetentionReport `json:"data"`
}

// GetRetentionStats handles GET /api/v1/retention-stats. The app_id must be
// the canonical package ID the snapshots were recorded under (the realAppId
// from the reviews debug block).
func (h *Handlers) GetRetentionStats(c *gin.Context) {
	// Snapshots are keyed by the normalized identifier, so the lookup has to
	// fold the query the same way.
	appID := services.NormalizeIdentifier(c.Query("app_id"))
	if appID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app_id is required")
		return
	}

	report, err := h.retention.ComputeRetention(c.Request.Context(), appID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRetentionFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, RetentionResponse{Status: StatusSuccess, Data: report})
}
