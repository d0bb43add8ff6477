package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformTikTok Platform = "tiktok"
	PlatformBoth   Platform = "both"
)

type SortBy string

const (
	SortRelevancy SortBy = "relevancy"
	SortLikes     SortBy = "likes"
	SortNewest    SortBy = "newest"
)

type SearchStatus string

const (
	StatusPending   SearchStatus = "pending"
	StatusCompleted SearchStatus = "completed"
	StatusFailed    SearchStatus = "failed"
)

const (
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 100
	DefaultSearchPeriod = 30
	MaxSearchPeriod     = 365
	DefaultCountry      = "US"
)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

type SearchParams struct {
	Query    string   `json:"query"`
	Platform Platform `json:"platform"`
	Limit    int      `json:"limit"`
	Country  string   `json:"country,omitempty"`
	Period   int      `json:"period,omitempty"`
	SortBy   SortBy   `json:"sort_by,omitempty"`
}

// Normalize fills defaults and canonicalizes casing. "ALL" and an empty
// country both mean the backend default market.
func (p SearchParams) Normalize() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	p.Platform = Platform(strings.ToLower(strings.TrimSpace(string(p.Platform))))
	if p.Platform == "" {
		p.Platform = PlatformMeta
	}
	if p.Limit == 0 {
		p.Limit = DefaultSearchLimit
	}
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	if p.Country == "" || p.Country == "ALL" {
		p.Country = DefaultCountry
	}
	if p.Period == 0 {
		p.Period = DefaultSearchPeriod
	}
	p.SortBy = SortBy(strings.ToLower(strings.TrimSpace(string(p.SortBy))))
	if p.SortBy == "" {
		p.SortBy = SortNewest
	}
	return p
}

// Validate expects normalized params
func (p SearchParams) Validate() error {
	if len([]rune(p.Query)) < 2 {
		return fmt.Errorf("%w: query must be at least 2 characters", ErrInvalidParams)
	}
	switch p.Platform {
	case PlatformMeta, PlatformTikTok, PlatformBoth:
	default:
		return fmt.Errorf("%w: unsupported platform %q", ErrInvalidParams, p.Platform)
	}
	if p.Limit < 1 || p.Limit > MaxSearchLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParams, MaxSearchLimit)
	}
	if !countryPattern.MatchString(p.Country) {
		return fmt.Errorf("%w: country must be a 2-letter code", ErrInvalidParams)
	}
	if p.Period < 1 || p.Period > MaxSearchPeriod {
		return fmt.Errorf("%w: period must be between 1 and %d days", ErrInvalidParams, MaxSearchPeriod)
	}
	switch p.SortBy {
	case SortRelevancy, SortLikes, SortNewest:
	default:
		return fmt.Errorf("%w: unsupported sort_by %q", ErrInvalidParams, p.SortBy)
	}
	return nil
}

// SearchKey identifies a search by its normalized parameters
type SearchKey string

// Key hashes the normalized parameters. Query matching is case-insensitive.
func (p SearchParams) Key() SearchKey {
	n := p.Normalize()
	parts := []string{
		strings.ToLower(n.Query),
		string(n.Platform),
		strconv.Itoa(n.Limit),
		n.Country,
		strconv.Itoa(n.Period),
		string(n.SortBy),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return SearchKey(hex.EncodeToString(sum[:]))
}

type SearchResult struct {
	ID        string         `json:"id"`
	Key       SearchKey      `json:"key"`
	UserID    string         `json:"user_id"`
	Params    SearchParams   `json:"params"`
	Timestamp time.Time      `json:"timestamp"`
	Status    SearchStatus   `json:"status"`
	MetaAds   []NormalizedAd `json:"metaAds"`
	TikTokAds []TikTokAd     `json:"tikTokAds"`
	Cost      int            `json:"cost"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// Fresh reports whether a cached result may still be served at now
func (r SearchResult) Fresh(now time.Time) bool {
	return r.ExpiresAt == nil || now.Before(*r.ExpiresAt)
}

func (r SearchResult) ResultsCount() int {
	return len(r.MetaAds) + len(r.TikTokAds)
}

type SearchHistoryItem struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Platform     Platform  `json:"platform"`
	Timestamp    time.Time `json:"timestamp"`
	ResultsCount int       `json:"resultsCount"`
	Limit        int       `json:"limit"`
	Country      string    `json:"country,omitempty"`
}

func NewHistoryItem(r SearchResult) SearchHistoryItem {
	return SearchHistoryItem{
		ID:           r.ID,
		Query:        r.Params.Query,
		Platform:     r.Params.Platform,
		Timestamp:    r.Timestamp,
		ResultsCount: r.ResultsCount(),
		Limit:        r.Params.Limit,
		Country:      r.Params.Country,
	}
}
