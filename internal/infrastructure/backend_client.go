package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adspy/internal/domain"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx answer from the scraping backend
type APIError struct {
	API        string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.API, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return domain.ErrUpstream
}

// implements domain.SearchBackend interface
type BackendClient struct {
	client      *http.Client
	baseURL     string
	secret      string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

func NewBackendClient(baseURL, secret string, timeout time.Duration, ratePerSecond int, logger *logger.Logger, metrics *metrics.Metrics) *BackendClient {
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &BackendClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		secret:      secret,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
	}
}

type searchResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// Search runs one platform query and returns the raw scraper rows untouched.
func (c *BackendClient) Search(ctx context.Context, session domain.Session, query domain.BackendQuery) ([]json.RawMessage, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		c.metrics.RecordBackendAPIFailure("search", "json_marshal")
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	endpoint := c.endpoint("/search/", session.UserID)
	start := time.Now()

	body, err := c.do(ctx, "search", http.MethodPost, endpoint, session, payload, false)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.RecordBackendAPIFailure("search", "json_parse")
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if resp.Data == nil {
		resp.Data = []json.RawMessage{}
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"platform": query.Platform,
		"keyword":  query.Keyword,
		"duration": time.Since(start),
		"records":  len(resp.Data),
	}).Info("Successfully fetched ads from backend")

	return resp.Data, nil
}

type savedAdPayload struct {
	UserID string          `json:"user_id"`
	Type   domain.AdType   `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func (c *BackendClient) MirrorSavedAd(ctx context.Context, session domain.Session, ad domain.SavedAd) error {
	payload, err := json.Marshal(savedAdPayload{UserID: session.UserID, Type: ad.Type, Data: ad.Data})
	if err != nil {
		c.metrics.RecordBackendAPIFailure("saved_ads", "json_marshal")
		return fmt.Errorf("failed to marshal saved ad: %w", err)
	}

	_, err = c.do(ctx, "saved_ads", http.MethodPost, c.endpoint("/user/saved-ads", ""), session, payload, true)
	return err
}

func (c *BackendClient) DeleteSavedAd(ctx context.Context, session domain.Session, savedID string) error {
	endpoint := c.endpoint("/user/saved-ads/"+url.PathEscape(savedID), session.UserID)
	_, err := c.do(ctx, "saved_ads", http.MethodDelete, endpoint, session, nil, true)
	return err
}

func (c *BackendClient) endpoint(path, userID string) string {
	u := c.baseURL + apiPrefix + path
	if userID != "" {
		u += "?user_id=" + url.QueryEscape(userID)
	}
	return u
}

// do sends one rate-limited request and returns the body of a 2xx answer.
func (c *BackendClient) do(ctx context.Context, api, method, endpoint string, session domain.Session, payload []byte, sign bool) ([]byte, error) {
	start := time.Now()

	// Apply rate limiting
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordBackendAPIFailure(api, "rate_limit")
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.metrics.RecordBackendAPIFailure(api, "request_creation")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	// Add HMAC signature if secret is provided
	if sign && c.secret != "" {
		req.Header.Set("X-Signature", c.generateHMACSignature(payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordBackendAPIFailure(api, "network_error")
		return nil, fmt.Errorf("failed to call %s API: %w", api, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordBackendAPIFailure(api, "read_body")
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordBackendAPICall(api, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, &APIError{API: api, StatusCode: resp.StatusCode, Detail: parseErrorDetail(body)}
	}

	c.metrics.RecordBackendAPICall(api, "success", duration)
	return body, nil
}

// generates HMAC-SHA256 signature for the payload
func (c *BackendClient) generateHMACSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseErrorDetail reads the backend "detail" field, which is either a plain
// message or a list of validation issues.
func parseErrorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return "request failed"
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var issues []validationIssue
	if err := json.Unmarshal(envelope.Detail, &issues); err == nil && len(issues) > 0 {
		parts := make([]string, 0, len(issues))
		for _, issue := range issues {
			parts = append(parts, issueField(issue.Loc)+": "+issue.Msg)
		}
		return strings.Join(parts, ", ")
	}

	return "request failed"
}

// issueField names the offending field: loc is ["body", "<field>", ...].
func issueField(loc []any) string {
	idx := 1
	if len(loc) < 2 {
		idx = len(loc) - 1
	}
	if idx < 0 {
		return "request"
	}
	return fmt.Sprint(loc[idx])
}
