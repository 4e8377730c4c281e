package testsupport

import (
	"testing"

	"orderbell/internal/config"
	"orderbell/internal/history"
)

// MustOpenHistory opens a sqlite history store for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.SQLiteStore {
	t.Helper()

	store, err := history.OpenSQLite(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("history.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
