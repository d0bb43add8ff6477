package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"adspy/internal/domain"
	"adspy/pkg/logger"

	_ "github.com/lib/pq"
)

// implements domain.SavedAdRepository interface on PostgreSQL
type PostgresSavedAdRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// OpenPostgres opens a pooled connection and pings it
func OpenPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return db, nil
}

func NewPostgresSavedAdRepository(db *sql.DB, logger *logger.Logger) *PostgresSavedAdRepository {
	return &PostgresSavedAdRepository{db: db, logger: logger}
}

// Migrate creates the saved_ads table if it doesn't exist
func (r *PostgresSavedAdRepository) Migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS saved_ads (
		id        TEXT        PRIMARY KEY,
		user_id   TEXT        NOT NULL,
		ad_type   VARCHAR(16) NOT NULL,
		ad_id     TEXT        NOT NULL,
		data      JSONB       NOT NULL,
		saved_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, ad_type, ad_id)
	);

	CREATE INDEX IF NOT EXISTS idx_saved_ads_user ON saved_ads (user_id, saved_at DESC);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create saved_ads table: %w", err)
	}
	r.logger.Info("Table 'saved_ads' is ready")
	return nil
}

func (r *PostgresSavedAdRepository) Save(ctx context.Context, ad domain.SavedAd) (domain.SavedAd, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_ads (id, user_id, ad_type, ad_id, data, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, ad_type, ad_id) DO NOTHING
	`, ad.ID, ad.UserID, string(ad.Type), ad.AdID, []byte(ad.Data), ad.SavedAt)
	if err != nil {
		return domain.SavedAd{}, false, fmt.Errorf("failed to insert saved ad: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return domain.SavedAd{}, false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted == 1 {
		return ad, true, nil
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, ad_type, ad_id, data, saved_at
		FROM saved_ads
		WHERE user_id = $1 AND ad_type = $2 AND ad_id = $3
	`, ad.UserID, string(ad.Type), ad.AdID)

	existing, err := scanSavedAd(row)
	if err != nil {
		return domain.SavedAd{}, false, fmt.Errorf("failed to load existing saved ad: %w", err)
	}
	return existing, false, nil
}

func (r *PostgresSavedAdRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_ads WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved ad: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSavedAdRepository) List(ctx context.Context, userID string) ([]domain.SavedAd, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, ad_type, ad_id, data, saved_at
		FROM saved_ads
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved ads: %w", err)
	}
	defer rows.Close()

	result := []domain.SavedAd{}
	for rows.Next() {
		ad, err := scanSavedAd(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved ads: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedAd(row rowScanner) (domain.SavedAd, error) {
	var (
		ad     domain.SavedAd
		adType string
		data   []byte
	)
	if err := row.Scan(&ad.ID, &ad.UserID, &adType, &ad.AdID, &data, &ad.SavedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SavedAd{}, domain.ErrNotFound
		}
		return domain.SavedAd{}, fmt.Errorf("failed to scan saved ad: %w", err)
	}
	ad.Type = domain.AdType(adType)
	ad.Data = data
	return ad, nil
}
