package infrastructure

import (
	"context"
	"sync"

	"adspy/internal/domain"
	"adspy/pkg/logger"
)

// implements domain.SearchStore interface
type MemorySearchStore struct {
	results      map[string]domain.SearchResult
	keys         map[domain.SearchKey]string
	history      map[string][]domain.SearchHistoryItem
	historyLimit int
	mutex        sync.RWMutex
	logger       *logger.Logger
}

// historyLimit caps the per-user history, newest first. Zero keeps everything.
func NewMemorySearchStore(historyLimit int, logger *logger.Logger) *MemorySearchStore {
	return &MemorySearchStore{
		results:      make(map[string]domain.SearchResult),
		keys:         make(map[domain.SearchKey]string),
		history:      make(map[string][]domain.SearchHistoryItem),
		historyLimit: historyLimit,
		logger:       logger,
	}
}

func (s *MemorySearchStore) Save(ctx context.Context, result domain.SearchResult) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.results[result.ID] = result
	if result.Key != "" && result.Status == domain.StatusCompleted {
		s.keys[result.Key] = result.ID
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"search_id": result.ID,
		"results":   result.ResultsCount(),
	}).Debug("Stored search result in memory")
	return nil
}

func (s *MemorySearchStore) Get(ctx context.Context, id string) (*domain.SearchResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &result, nil
}

// FindByKey returns the latest completed result for key, fresh or not.
func (s *MemorySearchStore) FindByKey(ctx context.Context, key domain.SearchKey) (*domain.SearchResult, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	id, ok := s.keys[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	result, ok := s.results[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &result, nil
}

func (s *MemorySearchStore) AppendHistory(ctx context.Context, userID string, item domain.SearchHistoryItem) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items := make([]domain.SearchHistoryItem, 0, len(s.history[userID])+1)
	items = append(items, item)
	for _, existing := range s.history[userID] {
		if existing.ID != item.ID {
			items = append(items, existing)
		}
	}
	if s.historyLimit > 0 && len(items) > s.historyLimit {
		items = items[:s.historyLimit]
	}
	s.history[userID] = items
	return nil
}

func (s *MemorySearchStore) History(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryItem, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := s.history[userID]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]domain.SearchHistoryItem, len(items))
	copy(out, items)
	return out, nil
}
