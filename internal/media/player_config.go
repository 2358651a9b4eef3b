package media

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed players.toml
var playersTOML []byte

// ErrUnsupported is returned when a player cannot handle a platform or type.
var ErrUnsupported = errors.New("player does not support this media")

// PlayerDefinition describes how a player is invoked. Command defaults to
// the player's name.
type PlayerDefinition struct {
	Description string           `toml:"description"`
	Command     string           `toml:"command,omitempty"`
	Platforms   []string         `toml:"platforms"`
	Video       *MediaTypeConfig `toml:"video,omitempty"`
	Audio       *MediaTypeConfig `toml:"audio,omitempty"`
	Image       *MediaTypeConfig `toml:"image,omitempty"`
	PDF         *MediaTypeConfig `toml:"pdf,omitempty"`
}

// MediaTypeConfig holds the arguments placed before the URL.
type MediaTypeConfig struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

// PlayerRegistry maps player names to their definitions.
type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry loads the built-in definitions, then any override files
// that exist. Missing override files are skipped.
func NewPlayerRegistry(overrides ...string) (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(playersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}
	if config.Players == nil {
		config.Players = make(map[string]PlayerDefinition)
	}

	r := &PlayerRegistry{players: config.Players, goos: runtime.GOOS}
	for _, path := range overrides {
		if err := r.loadFile(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PlayerRegistry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var user PlayersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Players {
		r.players[name] = def
	}
	return nil
}

// Command builds the invocation of playerName for a URL of the given type.
// Unknown players are run as "<name> <url>".
func (r *PlayerRegistry) Command(playerName string, mediaType Type, url string) (*exec.Cmd, error) {
	player, ok := r.players[playerName]
	if !ok {
		return exec.Command(playerName, url), nil
	}
	if !slices.Contains(player.Platforms, r.goos) {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupported, playerName, r.goos)
	}

	var cfg *MediaTypeConfig
	switch mediaType {
	case TypeVideo:
		cfg = player.Video
	case TypeAudio:
		cfg = player.Audio
	case TypeImage:
		cfg = player.Image
	case TypePDF:
		cfg = player.PDF
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: %s cannot open %s", ErrUnsupported, playerName, mediaType)
	}

	args := append(slices.Clone(r.args(cfg)), url)
	return exec.Command(r.commandName(playerName), args...), nil
}

func (r *PlayerRegistry) commandName(playerName string) string {
	if def, ok := r.players[playerName]; ok && def.Command != "" {
		return def.Command
	}
	return playerName
}

func (r *PlayerRegistry) args(cfg *MediaTypeConfig) []string {
	switch r.goos {
	case "darwin":
		if len(cfg.ArgsDarwin) > 0 {
			return cfg.ArgsDarwin
		}
	case "linux":
		if len(cfg.ArgsLinux) > 0 {
			return cfg.ArgsLinux
		}
	case "windows":
		if len(cfg.ArgsWindows) > 0 {
			return cfg.ArgsWindows
		}
	}
	return cfg.Args
}

// Available reports whether the player's executable is on PATH.
func (r *PlayerRegistry) Available(playerName string) bool {
	_, err := exec.LookPath(r.commandName(playerName))
	return err == nil
}

// FindAvailable returns the first installed player, or "".
func (r *PlayerRegistry) FindAvailable(players []string) string {
	for _, p := range players {
		if r.Available(p) {
			return p
		}
	}
	return ""
}
