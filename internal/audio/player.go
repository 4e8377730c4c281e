package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"orderbell/internal/config"
)

var (
	// ErrNotReady is returned by Play before a successful Preload.
	ErrNotReady = errors.New("audio player not preloaded")
	// ErrNoPlayer is returned when no supported player binary is installed.
	ErrNoPlayer = errors.New("no audio player found")
)

// Player is the audio channel contract.
type Player interface {
	Play(ctx context.Context) error
	Preload(ctx context.Context) error
	Ready() bool
}

type commandRunner func(ctx context.Context, name string, args ...string) error

type lookPathFunc func(file string) (string, error)

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, detail)
		}
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return nil
}

// Candidates lists supported players in auto-detection order.
func Candidates() []string {
	return []string{"paplay", "ffplay", "mpg123", "afplay", "aplay"}
}

func playerArgs(player, sound string) []string {
	switch filepath.Base(player) {
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", sound}
	case "mpg123":
		return []string{"-q", sound}
	default:
		return []string{sound}
	}
}

// CommandPlayer shells out to a player binary for each playback.
type CommandPlayer struct {
	soundPath string
	preferred string
	run       commandRunner
	lookPath  lookPathFunc

	mu       sync.Mutex
	resolved string
	ready    atomic.Bool
}

// Option customizes a CommandPlayer.
type Option func(*CommandPlayer)

// WithCommandRunner overrides how the player binary is executed.
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) Option {
	return func(p *CommandPlayer) {
		if run != nil {
			p.run = run
		}
	}
}

// WithLookPath overrides binary resolution.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *CommandPlayer) {
		if fn != nil {
			p.lookPath = fn
		}
	}
}

// NewCommandPlayer constructs a player for soundPath. An empty player name
// selects the first available entry from Candidates.
func NewCommandPlayer(soundPath, player string, opts ...Option) *CommandPlayer {
	p := &CommandPlayer{
		soundPath: strings.TrimSpace(soundPath),
		preferred: strings.TrimSpace(player),
		run:       runCommand,
		lookPath:  exec.LookPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds the configured player.
func NewFromConfig(cfg *config.Config, opts ...Option) *CommandPlayer {
	if cfg == nil {
		return NewCommandPlayer("", "", opts...)
	}
	return NewCommandPlayer(cfg.Audio.SoundPath, cfg.Audio.Player, opts...)
}

// Preload resolves the player binary and verifies the sound file is readable.
func (p *CommandPlayer) Preload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.soundPath == "" {
		return errors.New("audio sound path not configured")
	}
	info, err := os.Stat(p.soundPath)
	if err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound file %s is a directory", p.soundPath)
	}

	binary, err := p.resolve()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.resolved = binary
	p.mu.Unlock()
	p.ready.Store(true)
	return nil
}

func (p *CommandPlayer) resolve() (string, error) {
	if p.preferred != "" {
		path, err := p.lookPath(p.preferred)
		if err != nil {
			return "", fmt.Errorf("audio player %q: %w", p.preferred, err)
		}
		return path, nil
	}
	for _, candidate := range Candidates() {
		if path, err := p.lookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", ErrNoPlayer
}

// Ready reports whether Preload has succeeded.
func (p *CommandPlayer) Ready() bool {
	return p.ready.Load()
}

// Binary returns the resolved player path, empty before Preload.
func (p *CommandPlayer) Binary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Play runs one playback and returns once the player exits.
func (p *CommandPlayer) Play(ctx context.Context) error {
	if !p.ready.Load() {
		return ErrNotReady
	}
	binary := p.Binary()
	if err := p.run(ctx, binary, playerArgs(binary, p.soundPath)...); err != nil {
		return fmt.Errorf("play notification sound: %w", err)
	}
	return nil
}
