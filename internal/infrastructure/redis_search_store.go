package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adspy/internal/domain"
	"adspy/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix  = "search:result:"
	indexKeyPrefix   = "search:key:"
	historyKeyPrefix = "search:history:"
)

// implements domain.SearchStore interface on redis. Results are JSON
// strings, the key index expires with the result freshness and history is a
// capped list per user.
type RedisSearchStore struct {
	client       goredis.Cmdable
	retention    time.Duration
	historyLimit int
	logger       *logger.Logger
}

// retention bounds how long results stay readable by id; zero keeps them.
func NewRedisSearchStore(client goredis.Cmdable, retention time.Duration, historyLimit int, logger *logger.Logger) *RedisSearchStore {
	return &RedisSearchStore{
		client:       client,
		retention:    retention,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// NewRedisClient connects and pings
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *RedisSearchStore) Save(ctx context.Context, result domain.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal search result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, resultKeyPrefix+result.ID, data, s.retention)
	if result.Key != "" && result.Status == domain.StatusCompleted {
		var ttl time.Duration
		if result.ExpiresAt != nil {
			ttl = time.Until(*result.ExpiresAt)
			if ttl <= 0 {
				ttl = time.Millisecond
			}
		}
		pipe.Set(ctx, indexKeyPrefix+string(result.Key), result.ID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to save search result to redis")
		return fmt.Errorf("failed to save search result: %w", err)
	}
	return nil
}

func (s *RedisSearchStore) Get(ctx context.Context, id string) (*domain.SearchResult, error) {
	data, err := s.client.Get(ctx, resultKeyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load search result: %w", err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search result: %w", err)
	}
	return &result, nil
}

func (s *RedisSearchStore) FindByKey(ctx context.Context, key domain.SearchKey) (*domain.SearchResult, error) {
	id, err := s.client.Get(ctx, indexKeyPrefix+string(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load search index: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *RedisSearchStore) AppendHistory(ctx context.Context, userID string, item domain.SearchHistoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	key := historyKeyPrefix + userID
	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, key, 0, data)
	pipe.LPush(ctx, key, data)
	if s.historyLimit > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.historyLimit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append search history: %w", err)
	}
	return nil
}

func (s *RedisSearchStore) History(ctx context.Context, userID string, limit int) ([]domain.SearchHistoryItem, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	raw, err := s.client.LRange(ctx, historyKeyPrefix+userID, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}

	items := make([]domain.SearchHistoryItem, 0, len(raw))
	for _, entry := range raw {
		var item domain.SearchHistoryItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Skipping undecodable history entry")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
