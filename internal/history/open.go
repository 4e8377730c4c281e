package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orderbell/internal/config"
)

// Open returns the store selected by cfg.History.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.History.Driver))
	switch driver {
	case "", "sqlite":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, "", fmt.Errorf("ensure directories: %w", err)
		}
		store, err := OpenSQLite(cfg.HistoryDBPath())
		if err != nil {
			return nil, "", err
		}
		return store, "sqlite", nil
	case "postgres":
		store, err := OpenPostgres(ctx, cfg.History.DSN)
		if err != nil {
			return nil, "", err
		}
		return store, "postgres", nil
	case "none":
		return Nop{}, "none", nil
	default:
		return nil, "", fmt.Errorf("history driver %q not supported", cfg.History.Driver)
	}
}

// PruneExpired deletes entries older than retentionDays. Zero disables pruning.
func PruneExpired(ctx context.Context, store Store, retentionDays int, now time.Time) (int64, error) {
	if store == nil || retentionDays <= 0 {
		return 0, nil
	}
	return store.Prune(ctx, now.AddDate(0, 0, -retentionDays))
}

// Nop discards history.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) List(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

func (Nop) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

func (Nop) Close() error { return nil }
