package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"adspy/internal/domain"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/google/uuid"
)

type SavedAdService struct {
	repo    domain.SavedAdRepository
	backend domain.SearchBackend
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// backend may be nil to keep saved ads local only
func NewSavedAdService(repo domain.SavedAdRepository, backend domain.SearchBackend, logger *logger.Logger, metrics *metrics.Metrics) *SavedAdService {
	return &SavedAdService{
		repo:    repo,
		backend: backend,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Save stores a canonical ad for the session user. Saving the same ad twice
// returns the first entry with created=false. Mirroring to the backend is
// best effort.
func (s *SavedAdService) Save(ctx context.Context, session domain.Session, adType domain.AdType, ad json.RawMessage) (domain.SavedAd, bool, error) {
	if err := session.Validate(); err != nil {
		return domain.SavedAd{}, false, err
	}
	if _, err := domain.ParseAdType(string(adType)); err != nil {
		return domain.SavedAd{}, false, err
	}

	adID, err := adIdentifier(ad)
	if err != nil {
		return domain.SavedAd{}, false, err
	}

	entry := domain.SavedAd{
		ID:      uuid.NewString(),
		UserID:  session.UserID,
		Type:    adType,
		AdID:    adID,
		Data:    ad,
		SavedAt: s.now().UTC(),
	}

	saved, created, err := s.repo.Save(ctx, entry)
	if err != nil {
		s.metrics.RecordSavedAdOperation("save", "error")
		return domain.SavedAd{}, false, fmt.Errorf("failed to save ad: %w", err)
	}
	if !created {
		s.metrics.RecordSavedAdOperation("save", "duplicate")
		return saved, false, nil
	}
	s.metrics.RecordSavedAdOperation("save", "created")

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"saved_id": saved.ID,
		"type":     saved.Type,
		"ad_id":    saved.AdID,
	})
	if s.backend != nil {
		if err := s.backend.MirrorSavedAd(ctx, session, saved); err != nil {
			log.WithError(err).Warn("Failed to mirror saved ad to backend")
		}
	}
	log.Info("Saved ad")

	return saved, true, nil
}

func (s *SavedAdService) Remove(ctx context.Context, session domain.Session, savedID string) error {
	if err := session.Validate(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, session.UserID, savedID); err != nil {
		s.metrics.RecordSavedAdOperation("remove", "error")
		return fmt.Errorf("failed to remove saved ad %s: %w", savedID, err)
	}
	s.metrics.RecordSavedAdOperation("remove", "removed")

	if s.backend != nil {
		if err := s.backend.DeleteSavedAd(ctx, session, savedID); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("saved_id", savedID).Warn("Failed to remove saved ad from backend")
		}
	}
	return nil
}

func (s *SavedAdService) List(ctx context.Context, session domain.Session) ([]domain.SavedAd, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	ads, err := s.repo.List(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved ads: %w", err)
	}
	return ads, nil
}

// adIdentifier reads the "id" of a canonical ad object
func adIdentifier(ad json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(ad))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return "", fmt.Errorf("%w: ad must be a JSON object", domain.ErrInvalidParams)
	}

	switch id := obj["id"].(type) {
	case string:
		if strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id), nil
		}
	case json.Number:
		return id.String(), nil
	}
	return "", fmt.Errorf("%w: ad has no id", domain.ErrInvalidParams)
}
