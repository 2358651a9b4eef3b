// Package media opens article media and audio in external players.
package media

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
	"github.com/pders01/gazette/internal/validation"
)

type Type int

const (
	TypeVideo Type = iota
	TypeImage
	TypeAudio
	TypePDF
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	case TypePDF:
		return "pdf"
	default:
		return "link"
	}
}

// ErrNothingToOpen is returned for articles with no media, audio or sources.
var ErrNothingToOpen = errors.New("article has nothing to open")

type Launcher struct {
	players       map[Type]string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
	validator     *validation.URLValidator
	start         func(*exec.Cmd) error
}

// PlayersOverridePath is where users can redefine player invocations.
func PlayersOverridePath() string {
	return filepath.Join(filepath.Dir(config.DefaultPath()), "players.toml")
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewPlayerRegistry(PlayersOverridePath())
	if err != nil {
		debuglog.Warnf("media: player definitions: %v", err)
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media: type definitions: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = detector.DefaultOpener()
	}

	var players config.MediaPlayers
	switch runtime.GOOS {
	case "linux":
		players = cfg.Media.Linux
	case "windows":
		players = cfg.Media.Windows
	default:
		players = cfg.Media.Darwin
	}

	l := &Launcher{
		players:       make(map[Type]string),
		defaultOpener: defaultOpener,
		registry:      registry,
		detector:      detector,
		// article media may live anywhere, including a local dev server
		validator: validation.NewPermissiveFeedURLValidator(),
		start:     startDetached,
	}
	for t, candidates := range map[Type][]string{
		TypeVideo: players.Video,
		TypeImage: players.Image,
		TypeAudio: players.Audio,
		TypePDF:   players.PDF,
	} {
		l.players[t] = defaultOpener
		if p := registry.FindAvailable(candidates); p != "" {
			l.players[t] = p
		}
	}
	return l
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// Open validates rawURL and hands it to the player for its media type.
func (l *Launcher) Open(rawURL string) error {
	normalized, err := l.validator.ValidateAndNormalize(rawURL)
	if err != nil {
		return err
	}

	mediaType := l.detector.DetectType(normalized)
	player := l.players[mediaType]
	if player == "" {
		player = l.defaultOpener
	}
	if player == "" {
		return fmt.Errorf("no application found to open %s", mediaType)
	}

	cmd, err := l.registry.Command(player, mediaType, normalized)
	if err != nil {
		debuglog.Debugf("media: %v, falling back to plain invocation", err)
		cmd = exec.Command(player, normalized)
	}

	debuglog.Infof("media: opening %s with %s", normalized, player)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", player, err)
	}
	return nil
}

// OpenArticle opens the most relevant target of an article and returns it.
func (l *Launcher) OpenArticle(article *storage.Article) (string, error) {
	targets := Targets(article)
	if len(targets) == 0 {
		return "", ErrNothingToOpen
	}
	return targets[0], l.Open(targets[0])
}

// Targets lists what an article can open, in order: audio, videos, images,
// then source links.
func Targets(article *storage.Article) []string {
	if article == nil {
		return nil
	}

	var out []string
	if article.AudioURL != "" {
		out = append(out, article.AudioURL)
	}
	for _, want := range []storage.MediaType{storage.MediaVideo, storage.MediaImage} {
		for _, m := range article.Media {
			if m.Type == want && m.Src != "" {
				out = append(out, m.Src)
			}
		}
	}
	for _, s := range article.Sources {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
