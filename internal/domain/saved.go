package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type AdType string

const (
	AdTypeMeta   AdType = "meta"
	AdTypeTikTok AdType = "tiktok"
)

func ParseAdType(s string) (AdType, error) {
	switch AdType(s) {
	case AdTypeMeta, AdTypeTikTok:
		return AdType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAdType, s)
}

// SavedAd is a favorite kept by one user. Data holds the canonical ad JSON
// (a NormalizedAd for meta, a TikTokAd for tiktok).
type SavedAd struct {
	ID      string          `json:"id"`
	UserID  string          `json:"user_id"`
	Type    AdType          `json:"type"`
	AdID    string          `json:"ad_id"`
	Data    json.RawMessage `json:"data"`
	SavedAt time.Time       `json:"savedAt"`
}
