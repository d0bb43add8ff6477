package usecase

import (
	"context"
	"fmt"
	"sort"

	"adspy/internal/domain"
	"adspy/pkg/logger"
)

const recentQueriesLimit = 5

// DashboardService handles per-user dashboard statistics
type DashboardService struct {
	searchStore domain.SearchStore
	savedRepo   domain.SavedAdRepository
	logger      *logger.Logger
}

func NewDashboardService(searchStore domain.SearchStore, savedRepo domain.SavedAdRepository, logger *logger.Logger) *DashboardService {
	return &DashboardService{
		searchStore: searchStore,
		savedRepo:   savedRepo,
		logger:      logger,
	}
}

// Summary aggregates the stored history and saved ads of the session user.
// Top searches rank queries by how often they were run; ties keep the most
// recent query first.
func (s *DashboardService) Summary(ctx context.Context, session domain.Session) (*domain.DashboardSummary, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	log := s.logger.WithContext(ctx)

	history, err := s.searchStore.History(ctx, session.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}

	saved, err := s.savedRepo.List(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved ads: %w", err)
	}

	summary := &domain.DashboardSummary{
		Searches:      len(history),
		TopSearches:   topSearches(history, domain.TopSearchesLimit),
		ByPlatform:    make(map[domain.Platform]int),
		SavedAds:      len(saved),
		SavedByType:   make(map[domain.AdType]int),
		RecentQueries: history[:min(recentQueriesLimit, len(history))],
	}

	for _, item := range history {
		summary.AdsFound += item.ResultsCount
		summary.ByPlatform[item.Platform]++
	}
	if len(history) > 0 {
		last := history[0].Timestamp
		summary.LastSearchAt = &last
	}

	for _, ad := range saved {
		summary.SavedByType[ad.Type]++
	}

	log.WithFields(map[string]any{
		"searches":  summary.Searches,
		"saved_ads": summary.SavedAds,
	}).Debug("Dashboard summary generated")

	return summary, nil
}

// history is newest first
func topSearches(history []domain.SearchHistoryItem, limit int) []domain.QueryCount {
	counts := make(map[string]int)
	var order []string
	for _, item := range history {
		if _, seen := counts[item.Query]; !seen {
			order = append(order, item.Query)
		}
		counts[item.Query]++
	}

	top := make([]domain.QueryCount, 0, len(order))
	for _, q := range order {
		top = append(top, domain.QueryCount{Query: q, Count: counts[q]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}
