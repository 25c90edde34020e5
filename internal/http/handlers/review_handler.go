// Reviews HTTP handler.
//
// GET /api/v1/reviews runs the full acquisition pipeline: resolve, fetch per
// language, merge, window, aggregate. The response carries the display list,
// window stats, the date range covered, and a debug block with pipeline
// diagnostics.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/services"
)

// DateRange is the window covered by a reviews response, date-only.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReviewDebug carries pipeline diagnostics for troubleshooting empty or
// surprising results.
type ReviewDebug struct {
	TotalFetched int    `json:"totalFetched"`
	TotalInRange int    `json:"totalInRange"`
	RealAppID    string `json:"realAppId"`
}

// ReviewsResponse is the success envelope for GET /reviews.
type ReviewsResponse struct {
	Status string              `json:"status"`
	Data   []domain.ReviewItem `json:"data"`
	Stats  domain.Stats        `json:"stats"`
	Range  DateRange           `json:"range"`
	Debug  ReviewDebug         `json:"debug"`
}

// GetReviews handles GET /api/v1/reviews.
//
// Query parameters:
//   - app_id      (required) package ID or free-text app name
//   - country     store country, default "ng"
//   - lang        comma-separated language list, default "en"
//   - min_rating  lowest score to display, default 1
//   - max_rating  highest score to display, default 2 (complaints only)
//   - limit       display list cap, clamped to [1,1000]
func (h *Handlers) GetReviews(c *gin.Context) {
	appID, country, lang := h.queryDefaults(c)
	if appID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app_id is required")
		return
	}

	langs := make([]string, 0, 4)
	for _, l := range strings.Split(lang, ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}

	res, err := h.fetcher.Fetch(c.Request.Context(), services.ReviewQuery{
		RawID:    appID,
		Country:  country,
		Langs:    langs,
		MinScore: atoiDefault(c.Query("min_rating"), 1),
		MaxScore: atoiDefault(c.Query("max_rating"), 2),
		Limit:    atoiDefault(c.Query("limit"), 0),
	})
	if err != nil {
		failFetch(c, appID, err)
		return
	}

	ok(c, http.StatusOK, ReviewsResponse{
		Status: StatusSuccess,
		Data:   res.Items,
		Stats:  res.Stats,
		Range: DateRange{
			Start: res.Range.StartDate(),
			End:   res.Range.EndDate(),
		},
		Debug: ReviewDebug{
			TotalFetched: res.TotalFetched,
			TotalInRange: res.TotalInRange,
			RealAppID:    res.RealAppID,
		},
	})
}
