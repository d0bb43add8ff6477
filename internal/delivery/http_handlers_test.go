package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"adspy/internal/domain"
	"adspy/internal/infrastructure"
	"adspy/internal/normalize"
	"adspy/internal/usecase"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	mu   sync.Mutex
	rows map[domain.Platform][]json.RawMessage
	err  error
}

func (b *stubBackend) Search(ctx context.Context, session domain.Session, q domain.BackendQuery) ([]json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.rows[q.Platform], nil
}

func (b *stubBackend) MirrorSavedAd(ctx context.Context, session domain.Session, ad domain.SavedAd) error {
	return nil
}

func (b *stubBackend) DeleteSavedAd(ctx context.Context, session domain.Session, savedID string) error {
	return nil
}

type testServer struct {
	router  *gin.Engine
	backend *stubBackend
}

func newTestServer(t *testing.T, checks ...HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	backend := &stubBackend{rows: map[domain.Platform][]json.RawMessage{
		domain.PlatformMeta: {
			json.RawMessage(`{"ad_archive_id":"1","publisher_platform":["facebook"],"snapshot":{"videos":[{"video_hd_url":"https://v/1.mp4"}]},"start_date":1700000000,"likes":5}`),
			json.RawMessage(`{"ad_archive_id":"2","publisher_platform":["instagram"],"snapshot":{"images":[{"original_image_url":"https://i/2.jpg"}]},"start_date":1710000000,"likes":50}`),
		},
		domain.PlatformTikTok: {
			json.RawMessage(`{"id":"t1","diggCount":3}`),
		},
	}}

	searchStore := infrastructure.NewMemorySearchStore(50, log)
	savedRepo := infrastructure.NewMemorySavedAdRepository(log)

	searchService := usecase.NewSearchService(
		backend,
		searchStore,
		normalize.New(),
		log, m, 2, 10, time.Hour,
	)
	savedService := usecase.NewSavedAdService(savedRepo, backend, log, m)
	dashboardService := usecase.NewDashboardService(searchStore, savedRepo, log)

	handlers := NewHTTPHandlers(searchService, savedService, dashboardService, log, checks...)
	router := NewHTTPRouter(handlers, log, m, reg, 5*time.Second).SetupRoutes()

	return &testServer{router: router, backend: backend}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var userHeaders = map[string]string{"X-User-ID": "user-1", "Authorization": "Bearer tok"}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	s := newTestServer(t, HealthCheck{Name: "redis", Ping: func(ctx context.Context) error { return errors.New("down") }})
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "down", body["dependencies"].(map[string]any)["redis"])
}

func TestAPIInfo(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", decode(t, w)["api_version"])
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/saved-ads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])

	w = s.do(http.MethodGet, "/api/v1/saved-ads?user_id=user-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/search", `{"query":"shoes","platform":"both","limit":4}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, false, body["cached"])
	data := body["data"].(map[string]any)
	id := data["id"].(string)
	assert.Equal(t, "completed", data["status"])
	assert.Len(t, data["metaAds"], 2)
	assert.Len(t, data["tikTokAds"], 1)

	meta := data["metaAds"].([]any)[0].(map[string]any)
	assert.Equal(t, "1", meta["id"])
	assert.Equal(t, "2023-11-14T22:13:20.000Z", meta["startDate"])
	assert.Equal(t, "video", meta["media"].(map[string]any)["type"])

	w = s.do(http.MethodPost, "/api/v1/search", `{"query":"SHOES","platform":"both","limit":4}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["cached"])

	// filtered view
	w = s.do(http.MethodGet, "/api/v1/search/"+id+"?tab=instagram&sort=likes", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)["data"].(map[string]any)
	require.Len(t, view["metaAds"], 1)
	assert.Equal(t, "2", view["metaAds"].([]any)[0].(map[string]any)["id"])

	w = s.do(http.MethodGet, "/api/v1/search/"+id+"?format=image", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode(t, w)["data"].(map[string]any)
	assert.Len(t, view["metaAds"], 1)
	assert.Empty(t, view["tikTokAds"])

	w = s.do(http.MethodGet, "/api/v1/search/"+id+"?tab=tiktok", "", userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/search/missing", "", userHeaders)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// history
	w = s.do(http.MethodGet, "/api/v1/search/history", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)
	assert.Equal(t, float64(1), history["total"])

	w = s.do(http.MethodGet, "/api/v1/search/history?limit=abc", "", userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/search", `{"query":"s"}`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Search failed", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/v1/search", `{not json`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.backend.err = &infrastructure.APIError{API: "search", StatusCode: 402, Detail: "Not enough credits"}
	w = s.do(http.MethodPost, "/api/v1/search", `{"query":"boots"}`, userHeaders)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Not enough credits")
}

func TestNormalizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/normalize", `[{"ad_archive_id":"9","reach_estimate":"1234"}, null]`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	ads := body["data"].([]any)
	require.Len(t, ads, 1)
	assert.Equal(t, float64(1234), ads[0].(map[string]any)["reach"])
	report := body["report"].(map[string]any)
	assert.Equal(t, float64(2), report["rows"])
	assert.Equal(t, float64(1), report["dropped"])

	w = s.do(http.MethodPost, "/api/v1/normalize", `{"platform":"tiktok","rows":[{"id":"t9"}]}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	tiktok := decode(t, w)["data"].([]any)
	require.Len(t, tiktok, 1)
	assert.Equal(t, "t9", tiktok[0].(map[string]any)["id"])

	w = s.do(http.MethodPost, "/api/v1/normalize", `{"platform":" META ","rows":[{"id":"m1"}]}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "m1", decode(t, w)["data"].([]any)[0].(map[string]any)["id"])

	w = s.do(http.MethodPost, "/api/v1/normalize", `{"platform":"TikTok","rows":[{"id":"t2"}]}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t2", decode(t, w)["data"].([]any)[0].(map[string]any)["id"])

	w = s.do(http.MethodPost, "/api/v1/normalize", `{"platform":"youtube","rows":[]}`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/normalize", `"nope"`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavedAdsFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/saved-ads", `{"type":"meta","data":{"id":"42","pageName":"Shoe Co"}}`, userHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode(t, w)["data"].(map[string]any)
	id := saved["id"].(string)
	assert.Equal(t, "42", saved["ad_id"])

	w = s.do(http.MethodPost, "/api/v1/saved-ads", `{"type":"meta","data":{"id":"42"}}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])

	w = s.do(http.MethodPost, "/api/v1/saved-ads", `{"type":"youtube","data":{"id":"1"}}`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/saved-ads", `{"type":"meta"}`, userHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/saved-ads", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	other := map[string]string{"X-User-ID": "user-2"}
	w = s.do(http.MethodDelete, "/api/v1/saved-ads/"+id, "", other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/saved-ads/"+id, "", userHeaders)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/saved-ads", "", userHeaders)
	assert.Equal(t, float64(0), decode(t, w)["total"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", "", nil)

	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestDashboardSummary(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/dashboard/summary", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), decode(t, w)["data"].(map[string]any)["searches"])

	w = s.do(http.MethodPost, "/api/v1/search", `{"query":"shoes","platform":"meta","limit":4}`, userHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/v1/saved-ads", `{"type":"tiktok","data":{"id":"t1"}}`, userHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary", "", userHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), summary["searches"])
	assert.Equal(t, float64(2), summary["adsFound"])
	assert.Equal(t, float64(1), summary["savedAds"])
	top := summary["topSearches"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "shoes", top[0].(map[string]any)["query"])

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
