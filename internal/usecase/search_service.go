package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adspy/internal/domain"
	"adspy/internal/normalize"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type SearchService struct {
	backend    domain.SearchBackend
	store      domain.SearchStore
	normalizer *normalize.Normalizer
	logger     *logger.Logger
	metrics    *metrics.Metrics
	workerPool int
	batchSize  int
	cacheTTL   time.Duration
	now        func() time.Time
}

func NewSearchService(
	backend domain.SearchBackend,
	store domain.SearchStore,
	normalizer *normalize.Normalizer,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	workerPool, batchSize int,
	cacheTTL time.Duration,
) *SearchService {
	if workerPool < 1 {
		workerPool = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &SearchService{
		backend:    backend,
		store:      store,
		normalizer: normalizer,
		logger:     logger,
		metrics:    metrics,
		workerPool: workerPool,
		batchSize:  batchSize,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// RunSearch serves a fresh stored result for the same parameters or runs
// the search against the backend. The bool reports a cache hit.
func (s *SearchService) RunSearch(ctx context.Context, session domain.Session, params domain.SearchParams) (*domain.SearchResult, bool, error) {
	if err := session.Validate(); err != nil {
		return nil, false, err
	}
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, false, err
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"query":    params.Query,
		"platform": params.Platform,
		"limit":    params.Limit,
		"country":  params.Country,
	})
	key := params.Key()

	if cached := s.lookup(ctx, key); cached != nil {
		log.WithField("search_id", cached.ID).Info("Serving cached search result")
		if err := s.store.AppendHistory(ctx, session.UserID, domain.NewHistoryItem(*cached)); err != nil {
			log.WithError(err).Warn("Failed to record search history")
		}
		return cached, true, nil
	}

	start := time.Now()
	s.metrics.IncSearchesInFlight()
	defer s.metrics.DecSearchesInFlight()

	log.Info("Starting search")

	result := domain.SearchResult{
		ID:        uuid.NewString(),
		Key:       key,
		UserID:    session.UserID,
		Params:    params,
		Timestamp: s.now().UTC(),
		Status:    domain.StatusPending,
		MetaAds:   []domain.NormalizedAd{},
		TikTokAds: []domain.TikTokAd{},
	}

	// Extract raw rows from the backend
	metaRaw, tiktokRaw, err := s.extract(ctx, session, params)
	if err != nil {
		s.metrics.RecordSearch("failed", "extract", string(params.Platform), time.Since(start))
		result.Status = domain.StatusFailed
		if saveErr := s.store.Save(ctx, result); saveErr != nil {
			log.WithError(saveErr).Warn("Failed to store failed search")
		}
		return nil, false, fmt.Errorf("failed to fetch ads: %w", err)
	}

	// Transform into canonical ads
	result.MetaAds = s.normalizeMeta(ctx, normalize.DecodeRaw(metaRaw))
	result.TikTokAds = s.normalizeTikTok(ctx, normalize.DecodeRaw(tiktokRaw))

	result.Status = domain.StatusCompleted
	result.Cost = params.Limit
	if s.cacheTTL > 0 {
		expires := result.Timestamp.Add(s.cacheTTL)
		result.ExpiresAt = &expires
	}

	// Load into the store
	if err := s.store.Save(ctx, result); err != nil {
		s.metrics.RecordSearch("failed", "load", string(params.Platform), time.Since(start))
		return nil, false, fmt.Errorf("failed to store search result: %w", err)
	}
	if err := s.store.AppendHistory(ctx, session.UserID, domain.NewHistoryItem(result)); err != nil {
		log.WithError(err).Warn("Failed to record search history")
	}

	duration := time.Since(start)
	s.metrics.RecordSearch("success", "complete", string(params.Platform), duration)

	log.WithFields(map[string]any{
		"search_id":  result.ID,
		"duration":   duration,
		"meta_ads":   len(result.MetaAds),
		"tiktok_ads": len(result.TikTokAds),
	}).Info("Search completed successfully")

	return &result, false, nil
}

// lookup returns a fresh stored result for key, or nil
func (s *SearchService) lookup(ctx context.Context, key domain.SearchKey) *domain.SearchResult {
	cached, err := s.store.FindByKey(ctx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.RecordCacheLookup("miss")
		return nil
	case err != nil:
		s.logger.WithContext(ctx).WithError(err).Warn("Search store lookup failed")
		s.metrics.RecordCacheLookup("miss")
		return nil
	case !cached.Fresh(s.now()):
		s.metrics.RecordCacheLookup("stale")
		return nil
	}
	s.metrics.RecordCacheLookup("hit")
	return cached
}

// platformQueries splits a search into backend calls. For both platforms
// meta gets the larger half of the limit.
func platformQueries(params domain.SearchParams) []domain.BackendQuery {
	query := func(p domain.Platform, limit int) domain.BackendQuery {
		return domain.BackendQuery{
			Keyword:  params.Query,
			Platform: p,
			Limit:    limit,
			Country:  params.Country,
			Period:   params.Period,
			SortBy:   params.SortBy,
		}
	}

	switch params.Platform {
	case domain.PlatformTikTok:
		return []domain.BackendQuery{query(domain.PlatformTikTok, params.Limit)}
	case domain.PlatformBoth:
		metaLimit := (params.Limit + 1) / 2
		queries := []domain.BackendQuery{query(domain.PlatformMeta, metaLimit)}
		if rest := params.Limit - metaLimit; rest > 0 {
			queries = append(queries, query(domain.PlatformTikTok, rest))
		}
		return queries
	default:
		return []domain.BackendQuery{query(domain.PlatformMeta, params.Limit)}
	}
}

// extract fetches every platform concurrently. The first failure cancels the
// remaining backend calls.
func (s *SearchService) extract(ctx context.Context, session domain.Session, params domain.SearchParams) ([]json.RawMessage, []json.RawMessage, error) {
	log := s.logger.WithContext(ctx)
	queries := platformQueries(params)
	rows := make([][]json.RawMessage, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := s.backend.Search(gctx, session, q)
			if err != nil {
				log.WithError(err).WithField("platform", q.Platform).Error("Failed to fetch ads")
				return fmt.Errorf("%s extraction failed: %w", q.Platform, err)
			}
			rows[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var metaRaw, tiktokRaw []json.RawMessage
	for i, q := range queries {
		if q.Platform == domain.PlatformTikTok {
			tiktokRaw = rows[i]
		} else {
			metaRaw = rows[i]
		}
	}
	return metaRaw, tiktokRaw, nil
}

// NormalizeRows runs the Meta adapter over caller-supplied rows.
func (s *SearchService) NormalizeRows(ctx context.Context, rows []any) ([]domain.NormalizedAd, normalize.Report) {
	return s.normalizeMetaWithReport(ctx, rows)
}

// NormalizeTikTokRows runs the TikTok adapter over caller-supplied rows.
func (s *SearchService) NormalizeTikTokRows(ctx context.Context, rows []any) ([]domain.TikTokAd, normalize.Report) {
	ads, report := s.normalizer.NormalizeTikTokWithReport(rows)
	s.recordReport(ctx, "tiktok", report)
	return ads, report
}

func (s *SearchService) normalizeMeta(ctx context.Context, rows []any) []domain.NormalizedAd {
	ads, _ := s.normalizeMetaWithReport(ctx, rows)
	return ads
}

func (s *SearchService) normalizeTikTok(ctx context.Context, rows []any) []domain.TikTokAd {
	ads, _ := s.NormalizeTikTokRows(ctx, rows)
	return ads
}

type normalizedBatch struct {
	ads    []domain.NormalizedAd
	report normalize.Report
}

// normalizeMetaWithReport splits rows into batches normalized on the worker
// pool and reassembles them in input order.
func (s *SearchService) normalizeMetaWithReport(ctx context.Context, rows []any) ([]domain.NormalizedAd, normalize.Report) {
	if len(rows) <= s.batchSize {
		ads, report := s.normalizer.NormalizeWithReport(rows)
		s.recordReport(ctx, "meta", report)
		return ads, report
	}

	batches := make([]normalizedBatch, (len(rows)+s.batchSize-1)/s.batchSize)

	var g errgroup.Group
	g.SetLimit(s.workerPool)
	for i := range batches {
		start := i * s.batchSize
		end := min(start+s.batchSize, len(rows))
		g.Go(func() error {
			ads, report := s.normalizer.NormalizeWithReport(rows[start:end])
			batches[i] = normalizedBatch{ads: ads, report: report}
			return nil
		})
	}
	_ = g.Wait()

	ads := make([]domain.NormalizedAd, 0, len(rows))
	var report normalize.Report
	for _, b := range batches {
		ads = append(ads, b.ads...)
		report.Merge(b.report)
	}

	s.recordReport(ctx, "meta", report)
	return ads, report
}

func (s *SearchService) recordReport(ctx context.Context, platform string, report normalize.Report) {
	s.metrics.RecordNormalizedRows(platform, report.Normalized, report.Dropped)
	for field, count := range report.Defaulted {
		s.metrics.RecordDefaultedField(platform, string(field), count)
	}

	if report.Dropped > 0 || report.Recovered > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"platform":  platform,
			"rows":      report.Rows,
			"dropped":   report.Dropped,
			"recovered": report.Recovered,
		}).Warn("Normalization dropped rows")
	}
}

func (s *SearchService) GetResult(ctx context.Context, id string) (*domain.SearchResult, error) {
	result, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load search %s: %w", id, err)
	}
	return result, nil
}

func (s *SearchService) History(ctx context.Context, session domain.Session, limit int) ([]domain.SearchHistoryItem, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	items, err := s.store.History(ctx, session.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return items, nil
}
