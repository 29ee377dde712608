package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hwibalyu/geminaverblog/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteStore implements storage.OutcomeStore
var _ storage.OutcomeStore = (*sqliteStore)(nil)

type sqliteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS render_outcomes (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT,
	unavailable INTEGER NOT NULL DEFAULT 0,
	pdf_path TEXT,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite-backed storage.OutcomeStore.
func New(dsn string) (storage.OutcomeStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, outcome *storage.RenderOutcome) error {
	query := `
	INSERT INTO render_outcomes (id, url, status, reason, unavailable, pdf_path, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	unavailable := 0
	if outcome.Unavailable {
		unavailable = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		outcome.ID,
		outcome.URL,
		outcome.Status,
		outcome.Reason,
		unavailable,
		outcome.PDFPath,
		outcome.Duration.Milliseconds(),
		outcome.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (s *sqliteStore) Query(ctx context.Context, filter storage.Filter) ([]*storage.RenderOutcome, error) {
	query := `SELECT id, url, status, reason, unavailable, pdf_path, duration_ms, created_at FROM render_outcomes WHERE 1=1`
	args := []any{}

	if filter.URL != "" {
		query += ` AND url = ?`
		args = append(args, filter.URL)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite requires a LIMIT clause before OFFSET
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*storage.RenderOutcome
	for rows.Next() {
		var o storage.RenderOutcome
		var durationMs, unavailable int64
		var createdAt time.Time
		if err := rows.Scan(&o.ID, &o.URL, &o.Status, &o.Reason, &unavailable, &o.PDFPath, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Unavailable = unavailable != 0
		o.Duration = time.Duration(durationMs) * time.Millisecond
		o.CreatedAt = createdAt
		outcomes = append(outcomes, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return outcomes, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
