package preflight

import (
	"context"
	"strings"

	"orderbell/internal/config"
	"orderbell/internal/orders"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSoundFile(cfg.Audio.SoundPath),
		CheckAudioPlayer(cfg.Audio.Player),
		CheckBackend(ctx, orders.NewClient(cfg)),
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.History.Driver), "none") {
		results = append(results, CheckHistory(ctx, cfg))
	}
	if strings.TrimSpace(cfg.Broker.Kind) != "" {
		results = append(results, CheckBroker(cfg))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
