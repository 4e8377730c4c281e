package audio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"orderbell/internal/audio"
)

func writeSound(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bell.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write sound: %v", err)
	}
	return path
}

func fakeLookPath(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, candidate := range available {
			if candidate == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestPlayBeforePreloadFailsSoft(t *testing.T) {
	calls := 0
	player := audio.NewCommandPlayer(writeSound(t), "", audio.WithCommandRunner(func(context.Context, string, ...string) error {
		calls++
		return nil
	}))

	if err := player.Play(context.Background()); !errors.Is(err, audio.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no command invocation, got %d", calls)
	}
}

func TestPreloadAutoDetectsPlayer(t *testing.T) {
	sound := writeSound(t)
	var gotName string
	var gotArgs []string
	player := audio.NewCommandPlayer(sound, "",
		audio.WithLookPath(fakeLookPath("ffplay", "aplay")),
		audio.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
			gotName = name
			gotArgs = args
			return nil
		}),
	)

	if err := player.Preload(context.Background()); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if !player.Ready() {
		t.Fatal("expected player ready after preload")
	}
	if player.Binary() != "/usr/bin/ffplay" {
		t.Fatalf("expected ffplay to win detection, got %q", player.Binary())
	}
	if err := player.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if gotName != "/usr/bin/ffplay" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != sound || gotArgs[0] != "-nodisp" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestPreloadFailures(t *testing.T) {
	sound := writeSound(t)
	cases := []struct {
		name   string
		player *audio.CommandPlayer
	}{
		{"missing sound", audio.NewCommandPlayer(filepath.Join(t.TempDir(), "missing.mp3"), "", audio.WithLookPath(fakeLookPath("paplay")))},
		{"no player", audio.NewCommandPlayer(sound, "", audio.WithLookPath(fakeLookPath()))},
		{"preferred missing", audio.NewCommandPlayer(sound, "mpv", audio.WithLookPath(fakeLookPath("paplay")))},
		{"unconfigured", audio.NewCommandPlayer("", "", audio.WithLookPath(fakeLookPath("paplay")))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.player.Preload(context.Background()); err == nil {
				t.Fatal("expected preload error")
			}
			if tc.player.Ready() {
				t.Fatal("expected player to stay unready")
			}
		})
	}
}

func TestPlayWrapsRunnerError(t *testing.T) {
	boom := errors.New("device busy")
	player := audio.NewCommandPlayer(writeSound(t), "paplay",
		audio.WithLookPath(fakeLookPath("paplay")),
		audio.WithCommandRunner(func(context.Context, string, ...string) error { return boom }),
	)
	if err := player.Preload(context.Background()); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if err := player.Play(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}
