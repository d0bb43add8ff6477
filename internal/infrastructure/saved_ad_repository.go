package infrastructure

import (
	"context"
	"sort"
	"sync"

	"adspy/internal/domain"
	"adspy/pkg/logger"
)

// implements domain.SavedAdRepository interface
type MemorySavedAdRepository struct {
	data   map[string][]domain.SavedAd
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemorySavedAdRepository(logger *logger.Logger) *MemorySavedAdRepository {
	return &MemorySavedAdRepository{
		data:   make(map[string][]domain.SavedAd),
		logger: logger,
	}
}

func (r *MemorySavedAdRepository) Save(ctx context.Context, ad domain.SavedAd) (domain.SavedAd, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.data[ad.UserID] {
		if existing.Type == ad.Type && existing.AdID == ad.AdID {
			return existing, false, nil
		}
	}

	r.data[ad.UserID] = append(r.data[ad.UserID], ad)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"saved_id": ad.ID,
		"type":     ad.Type,
	}).Debug("Stored saved ad in memory")
	return ad, true, nil
}

func (r *MemorySavedAdRepository) Delete(ctx context.Context, userID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ads := r.data[userID]
	for i, ad := range ads {
		if ad.ID == id {
			r.data[userID] = append(ads[:i:i], ads[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// List returns newest first
func (r *MemorySavedAdRepository) List(ctx context.Context, userID string) ([]domain.SavedAd, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]domain.SavedAd, len(r.data[userID]))
	copy(result, r.data[userID])

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SavedAt.After(result[j].SavedAt)
	})
	return result, nil
}
