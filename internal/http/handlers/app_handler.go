// App-info HTTP handler.
//
// This file also declares the service contracts the HTTP layer consumes and
// the Handlers aggregate that the router wires up. Handlers are
// transport-thin: they parse and default query input, call application
// services, and translate results (including the connectivity-versus-missing
// distinction) into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reviewpulse/go-review-backend/internal/domain"
	"github.com/reviewpulse/go-review-backend/internal/retry"
	"github.com/reviewpulse/go-review-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AppResolver resolves a user-supplied identifier to a canonical app record.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AppResolver interface {
	Resolve(ctx context.Context, rawID, country, lang string) (*domain.AppDetail, error)
}

// ReviewFetcher runs the review acquisition pipeline for one query.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReviewFetcher interface {
	Fetch(ctx context.Context, q services.ReviewQuery) (*services.ReviewResult, error)
}

// ReviewClassifier assigns complaint categories to a batch of reviews.
type ReviewClassifier interface {
	ClassifyAll(reviews []domain.Review) []domain.Classification
}

// RetentionReporter computes day-over-day survival of high-score reviews.
type RetentionReporter interface {
	ComputeRetention(ctx context.Context, appID string) (*domain.RetentionReport, error)
}

//
// Handler wiring
//

// Defaults applied when the corresponding query parameter is absent and no
// override was configured.
const (
	DefaultCountry = "ng"
	DefaultLang    = "en"
)

// Handlers groups the HTTP endpoints for app info, reviews, analysis, and
// retention. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	resolver   AppResolver
	fetcher    ReviewFetcher
	classifier ReviewClassifier
	retention  RetentionReporter

	defaultCountry string
	defaultLang    string
}

// New constructs a Handlers instance bound to the given services.
func New(resolver AppResolver, fetcher ReviewFetcher, classifier ReviewClassifier, retention RetentionReporter) *Handlers {
	return &Handlers{
		resolver:       resolver,
		fetcher:        fetcher,
		classifier:     classifier,
		retention:      retention,
		defaultCountry: DefaultCountry,
		defaultLang:    DefaultLang,
	}
}

// WithDefaults overrides the country and language applied when the request
// omits them. Empty values keep the built-in defaults.
func (h *Handlers) WithDefaults(country, lang string) *Handlers {
	if country != "" {
		h.defaultCountry = strings.ToLower(country)
	}
	if lang != "" {
		h.defaultLang = strings.ToLower(lang)
	}
	return h
}

//
// Helpers
//

// queryDefaults reads the identifying query parameters shared by most
// endpoints, applying defaults for country and language.
func (h *Handlers) queryDefaults(c *gin.Context) (appID, country, lang string) {
	appID = strings.TrimSpace(c.Query("app_id"))
	country = c.DefaultQuery("country", h.defaultCountry)
	lang = c.DefaultQuery("lang", h.defaultLang)
	return
}

// atoiDefault parses s as an int, returning def when s is empty or invalid.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// failFetch maps a resolution/fetch error to an HTTP error response. The
// distinction matters operationally: a transient transport failure means the
// store (or the proxy in front of it) is unreachable and is reported as 503,
// while a clean miss is a 404.
func failFetch(c *gin.Context, appID string, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyIdentifier):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app_id is required")
	case errors.Is(err, services.ErrAmbiguousMatch):
		fail(c, http.StatusNotFound, ErrCodeAmbiguousMatch,
			"no app matching \""+appID+"\" was found; the closest store result did not match")
	case errors.Is(err, services.ErrAppNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "app not found: "+appID)
	case retry.IsTransient(err):
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamUnreachable,
			"could not reach the app store; check network connectivity and proxy settings: "+err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// DTOs
//

// AppInfo is the client-facing app detail shape. Score is rendered as a
// one-decimal string ("4.3") for display parity with the store listing.
type AppInfo struct {
	AppID    string `json:"appId"`
	Title    string `json:"title"`
	Score    string `json:"score"`
	Installs string `json:"installs"`
	Genre    string `json:"genre"`
}

// AppInfoResponse is the success envelope for GET /app-info.
type AppInfoResponse struct {
	Status string  `json:"status"`
	Data   AppInfo `json:"data"`
}

//
// Handlers
//

// GetAppInfo handles GET /api/v1/app-info. It resolves app_id (package ID or
// free-text name) and returns the canonical store record.
func (h *Handlers) GetAppInfo(c *gin.Context) {
	appID, country, lang := h.queryDefaults(c)
	if appID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "app_id is required")
		return
	}

	detail, err := h.resolver.Resolve(c.Request.Context(), appID, country, lang)
	if err != nil {
		failFetch(c, appID, err)
		return
	}

	ok(c, http.StatusOK, AppInfoResponse{
		Status: StatusSuccess,
		Data: AppInfo{
			AppID:    detail.AppID,
			Title:    detail.Title,
			Score:    strconv.FormatFloat(detail.Score, 'f', 1, 64),
			Installs: detail.Installs,
			Genre:    detail.Genre,
		},
	})
}
