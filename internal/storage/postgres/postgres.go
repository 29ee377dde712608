package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresStore implements storage.OutcomeStore
var _ storage.OutcomeStore = (*postgresStore)(nil)

type postgresStore struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS render_outcomes (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT,
	unavailable BOOLEAN NOT NULL DEFAULT FALSE,
	pdf_path TEXT,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a new Postgres-backed storage.OutcomeStore.
func New(ctx context.Context, dsn string) (storage.OutcomeStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Save(ctx context.Context, outcome *storage.RenderOutcome) error {
	query := `
	INSERT INTO render_outcomes (id, url, status, reason, unavailable, pdf_path, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		outcome.ID,
		outcome.URL,
		outcome.Status,
		outcome.Reason,
		outcome.Unavailable,
		outcome.PDFPath,
		outcome.Duration.Milliseconds(),
		outcome.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (s *postgresStore) Query(ctx context.Context, filter storage.Filter) ([]*storage.RenderOutcome, error) {
	query := `SELECT id, url, status, reason, unavailable, pdf_path, duration_ms, created_at FROM render_outcomes WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.URL != "" {
		query += fmt.Sprintf(` AND url = $%d`, paramCount)
		args = append(args, filter.URL)
		paramCount++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, paramCount)
		args = append(args, filter.Status)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
		paramCount++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*storage.RenderOutcome
	for rows.Next() {
		var o storage.RenderOutcome
		var durationMs int64

		if err := rows.Scan(&o.ID, &o.URL, &o.Status, &o.Reason, &o.Unavailable, &o.PDFPath, &durationMs, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Duration = time.Duration(durationMs) * time.Millisecond
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return outcomes, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
