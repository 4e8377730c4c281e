package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists history in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the history table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the history table and index when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS alert_history (
  id bigserial PRIMARY KEY,
  order_id text NOT NULL,
  message text NOT NULL,
  amount double precision NOT NULL DEFAULT 0,
  item_count integer NOT NULL DEFAULT 0,
  customer text,
  delayed boolean NOT NULL DEFAULT false,
  source text NOT NULL,
  created_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_history_created_at ON alert_history(created_at);`)
	if err != nil {
		return fmt.Errorf("ensure alert_history schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, entry Entry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alert_history (order_id, message, amount, item_count, customer, delayed, source, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.OrderID, entry.Message, entry.Amount, entry.ItemCount,
		nullableString(entry.Customer), entry.Delayed, string(entry.Source), created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert history: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, order_id, message, amount, item_count, COALESCE(customer, ''), delayed, source, created_at
              FROM alert_history ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry  Entry
			source string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Message, &entry.Amount, &entry.ItemCount, &entry.Customer, &entry.Delayed, &source, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert history: %w", err)
		}
		entry.Source = Source(source)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert history: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM alert_history WHERE created_at < $1", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune alert history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
