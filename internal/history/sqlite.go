package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so stored values sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists history in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Record inserts one alert.
func (s *SQLiteStore) Record(ctx context.Context, entry Entry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	delayed := 0
	if entry.Delayed {
		delayed = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_history (order_id, message, amount, item_count, customer, delayed, source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.OrderID,
		entry.Message,
		entry.Amount,
		entry.ItemCount,
		nullableString(entry.Customer),
		delayed,
		string(entry.Source),
		created.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert alert history: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, order_id, message, amount, item_count, customer, delayed, source, created_at
              FROM alert_history ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry    Entry
			customer sql.NullString
			delayed  int
			source   string
			created  string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Message, &entry.Amount, &entry.ItemCount, &customer, &delayed, &source, &created); err != nil {
			return nil, fmt.Errorf("scan alert history: %w", err)
		}
		entry.Customer = customer.String
		entry.Delayed = delayed != 0
		entry.Source = Source(source)
		if ts, err := time.Parse(timestampLayout, created); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alert_history WHERE created_at < ?", before.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("prune alert history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
