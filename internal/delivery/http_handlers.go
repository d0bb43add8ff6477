package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"adspy/internal/delivery/middleware"
	"adspy/internal/domain"
	"adspy/internal/normalize"
	"adspy/internal/usecase"
	"adspy/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthCheck is a named dependency probe
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// handles HTTP requests
type HTTPHandlers struct {
	searchService    *usecase.SearchService
	savedAdService   *usecase.SavedAdService
	dashboardService *usecase.DashboardService
	checks           []HealthCheck
	logger           *logger.Logger
}

func NewHTTPHandlers(
	searchService *usecase.SearchService,
	savedAdService *usecase.SavedAdService,
	dashboardService *usecase.DashboardService,
	logger *logger.Logger,
	checks ...HealthCheck,
) *HTTPHandlers {
	return &HTTPHandlers{
		searchService:    searchService,
		savedAdService:   savedAdService,
		dashboardService: dashboardService,
		checks:           checks,
		logger:           logger,
	}
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParams), errors.Is(err, domain.ErrInvalidAdType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandlers) respondError(c *gin.Context, title string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error(title)
	}
	c.JSON(status, gin.H{
		"error":      title,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) badRequest(c *gin.Context, title, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      title,
		"message":    message,
		"request_id": c.GetString("request_id"),
	})
}

// RunSearch runs or serves a cached ad library search
func (h *HTTPHandlers) RunSearch(c *gin.Context) {
	var params domain.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		h.badRequest(c, "Invalid request body", err.Error())
		return
	}

	result, cached, err := h.searchService.RunSearch(c.Request.Context(), middleware.SessionFrom(c), params)
	if err != nil {
		h.respondError(c, "Search failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"cached":     cached,
		"request_id": c.GetString("request_id"),
	})
}

// GetSearch returns a stored search, filtered and sorted like the results grid
func (h *HTTPHandlers) GetSearch(c *gin.Context) {
	opts, err := usecase.ParseFeedOptions(c.Query("tab"), c.Query("format"), c.Query("sort"))
	if err != nil {
		h.respondError(c, "Invalid parameters", err)
		return
	}

	result, err := h.searchService.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to retrieve search", err)
		return
	}

	view := *result
	view.MetaAds = usecase.FilterMetaAds(result.MetaAds, opts)
	view.TikTokAds = usecase.FilterTikTokAds(result.TikTokAds, opts)

	c.JSON(http.StatusOK, gin.H{
		"data":       view,
		"request_id": c.GetString("request_id"),
	})
}

// GetSearchHistory lists the caller's searches, newest first
func (h *HTTPHandlers) GetSearchHistory(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.badRequest(c, "Invalid parameters", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	items, err := h.searchService.History(c.Request.Context(), middleware.SessionFrom(c), limit)
	if err != nil {
		h.respondError(c, "Failed to retrieve history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       items,
		"total":      len(items),
		"request_id": c.GetString("request_id"),
	})
}

type normalizeRequest struct {
	Platform domain.Platform `json:"platform"`
	Rows     json.RawMessage `json:"rows"`
}

// Normalize maps caller-supplied raw rows. The body is either a JSON array of
// Meta rows or {"platform": "meta"|"tiktok", "rows": [...]}.
func (h *HTTPHandlers) Normalize(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.badRequest(c, "Invalid request body", err.Error())
		return
	}

	platform := domain.PlatformMeta
	rowsJSON := bytes.TrimSpace(body)
	if len(rowsJSON) > 0 && rowsJSON[0] == '{' {
		var req normalizeRequest
		if err := json.Unmarshal(rowsJSON, &req); err != nil {
			h.badRequest(c, "Invalid request body", err.Error())
			return
		}
		if p := strings.ToLower(strings.TrimSpace(string(req.Platform))); p != "" {
			platform = domain.Platform(p)
		}
		rowsJSON = req.Rows
	}

	rows, err := normalize.DecodeRows(rowsJSON)
	if err != nil {
		h.badRequest(c, "Invalid request body", "rows must be a JSON array")
		return
	}

	ctx := c.Request.Context()
	switch platform {
	case domain.PlatformMeta:
		ads, report := h.searchService.NormalizeRows(ctx, rows)
		c.JSON(http.StatusOK, gin.H{"data": ads, "report": report, "request_id": c.GetString("request_id")})
	case domain.PlatformTikTok:
		ads, report := h.searchService.NormalizeTikTokRows(ctx, rows)
		c.JSON(http.StatusOK, gin.H{"data": ads, "report": report, "request_id": c.GetString("request_id")})
	default:
		h.badRequest(c, "Invalid parameters", "platform must be meta or tiktok")
	}
}

type saveAdRequest struct {
	Type domain.AdType   `json:"type" binding:"required"`
	Data json.RawMessage `json:"data" binding:"required"`
}

func (h *HTTPHandlers) ListSavedAds(c *gin.Context) {
	ads, err := h.savedAdService.List(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.respondError(c, "Failed to retrieve saved ads", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       ads,
		"total":      len(ads),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) SaveAd(c *gin.Context) {
	var req saveAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err.Error())
		return
	}

	saved, created, err := h.savedAdService.Save(c.Request.Context(), middleware.SessionFrom(c), req.Type, req.Data)
	if err != nil {
		h.respondError(c, "Failed to save ad", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"data":       saved,
		"created":    created,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) RemoveSavedAd(c *gin.Context) {
	id := c.Param("id")
	if err := h.savedAdService.Remove(c.Request.Context(), middleware.SessionFrom(c), id); err != nil {
		h.respondError(c, "Failed to remove saved ad", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Saved ad removed",
		"id":         id,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) GetDashboardSummary(c *gin.Context) {
	summary, err := h.dashboardService.Summary(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.respondError(c, "Failed to build dashboard summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       summary,
		"request_id": c.GetString("request_id"),
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "adspy",
		"version":     "1.0.0",
		"description": "Ad library search with normalized Meta and TikTok ads",
		"endpoints": gin.H{
			"search": gin.H{
				"description": "Search ad libraries and browse results",
				"endpoints": gin.H{
					"run": gin.H{
						"path":    "POST /api/v1/search",
						"body":    "{query, platform: meta|tiktok|both, limit 1-100, country, period 1-365, sort_by: relevancy|likes|newest}",
						"example": `{"query":"running shoes","platform":"both","limit":20,"country":"DE"}`,
					},
					"get": gin.H{
						"path": "GET /api/v1/search/:id",
						"parameters": gin.H{
							"tab":    "Optional: all|facebook|instagram",
							"format": "Optional: all|video|image",
							"sort":   "Optional: newest|likes|reach|spend",
						},
					},
					"history": gin.H{
						"path":       "GET /api/v1/search/history",
						"parameters": gin.H{"limit": "Optional: number of entries"},
					},
				},
			},
			"normalize": gin.H{
				"path": "POST /api/v1/normalize",
				"body": `[raw rows] or {"platform":"meta|tiktok","rows":[raw rows]}`,
			},
			"saved_ads": gin.H{
				"list":   "GET /api/v1/saved-ads",
				"save":   `POST /api/v1/saved-ads {"type":"meta|tiktok","data":{ad}}`,
				"remove": "DELETE /api/v1/saved-ads/:id",
			},
			"dashboard": gin.H{
				"summary": "GET /api/v1/dashboard/summary",
			},
		},
		"authentication": gin.H{
			"X-User-ID":     "Required on every route below /api/v1 except this one",
			"Authorization": "Optional: Bearer token forwarded to the scraping backend",
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service and its stores
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[check.Name] = err.Error()
			continue
		}
		deps[check.Name] = "connected"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       state,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "adspy",
		"version":      "1.0.0",
		"dependencies": deps,
		"request_id":   c.GetString("request_id"),
	})
}
