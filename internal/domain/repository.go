package domain

import (
	"context"
	"encoding/json"
)

// BackendQuery is one platform-specific call to the scraping backend
type BackendQuery struct {
	Keyword  string   `json:"keyword"`
	Platform Platform `json:"platform"`
	Limit    int      `json:"limit"`
	Country  string   `json:"country"`
	Period   int      `json:"period"`
	SortBy   SortBy   `json:"sort_by"`
}

// interface for the upstream scraping backend
type SearchBackend interface {
	Search(ctx context.Context, session Session, query BackendQuery) ([]json.RawMessage, error)
	MirrorSavedAd(ctx context.Context, session Session, ad SavedAd) error
	DeleteSavedAd(ctx context.Context, session Session, savedID string) error
}

// keyed store for search results and per-user history
type SearchStore interface {
	Save(ctx context.Context, result SearchResult) error
	Get(ctx context.Context, id string) (*SearchResult, error)
	FindByKey(ctx context.Context, key SearchKey) (*SearchResult, error)
	AppendHistory(ctx context.Context, userID string, item SearchHistoryItem) error
	History(ctx context.Context, userID string, limit int) ([]SearchHistoryItem, error)
}

// interface for saved ad persistence
type SavedAdRepository interface {
	// Save stores ad unless the user already saved the same (type, ad id);
	// it returns the stored entry and whether it was newly created.
	Save(ctx context.Context, ad SavedAd) (SavedAd, bool, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string) ([]SavedAd, error)
}
