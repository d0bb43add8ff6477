package domain

import "time"

const TopSearchesLimit = 4

type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// DashboardSummary aggregates one user's search history and saved ads
type DashboardSummary struct {
	Searches      int                 `json:"searches"`
	AdsFound      int                 `json:"adsFound"`
	TopSearches   []QueryCount        `json:"topSearches"`
	ByPlatform    map[Platform]int    `json:"byPlatform"`
	SavedAds      int                 `json:"savedAds"`
	SavedByType   map[AdType]int      `json:"savedByType"`
	LastSearchAt  *time.Time          `json:"lastSearchAt"`
	RecentQueries []SearchHistoryItem `json:"recentQueries"`
}
