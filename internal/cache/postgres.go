package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blog-analyzer-backend/internal/report"
)

// PGStore persists reports in the analysis_cache table.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewPGStore constructs a PGStore on db.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db, Now: time.Now}
}

func (s *PGStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *PGStore) Get(ctx context.Context, key string) (report.Result, error) {
	const q = `
		SELECT result
		FROM analysis_cache
		WHERE cache_key = $1 AND expires_at > $2`
	var raw []byte
	if err := s.DB.QueryRowContext(ctx, q, key, s.now()).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Result{}, ErrMiss
		}
		return report.Result{}, fmt.Errorf("cache get: %w", err)
	}
	res, err := report.Decode(raw)
	if err != nil {
		return report.Result{}, fmt.Errorf("cache get: %w", err)
	}
	return res, nil
}

func (s *PGStore) Put(ctx context.Context, key, blogURL string, res report.Result, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	now := s.now()
	const q = `
		INSERT INTO analysis_cache (cache_key, blog_url, result, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			blog_url = EXCLUDED.blog_url,
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`
	if _, err := s.DB.ExecContext(ctx, q, key, blogURL, payload, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Purge deletes expired rows.
func (s *PGStore) Purge(ctx context.Context) (int64, error) {
	result, err := s.DB.ExecContext(ctx, `DELETE FROM analysis_cache WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return n, nil
}
