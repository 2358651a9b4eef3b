package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/gazette/internal/api"
	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/media"
	"github.com/pders01/gazette/internal/navigation"
	"github.com/pders01/gazette/internal/search"
	"github.com/pders01/gazette/internal/source"
	"github.com/pders01/gazette/internal/storage"
	"github.com/pders01/gazette/internal/tui"
	"github.com/pders01/gazette/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	// Global flags
	configPath string
	dbPath     string
	link       string
	offline    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "gazette",
	Short: "Terminal blog reader",
	Long: `gazette reads a blog from the terminal.

It loads articles and site settings from the blog functions, keeps a local
cache for offline reading, and includes a PIN-gated admin console.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReader(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gazette %s\n", Version)
		fmt.Fprintln(out, "Terminal blog reader")
		fmt.Fprintln(out, "github.com/pders01/gazette")
	},
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configPath
		if target == "" {
			target = config.DefaultPath()
		}
		if err := config.GenerateDefaultConfig(target); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", target)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the local cache (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Read from the local cache only")
	rootCmd.Flags().StringVar(&link, "link", "", "Open an article: an id or a link carrying ?articleId=")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")

	rootCmd.AddCommand(versionCmd, generateConfigCmd, serveCmd, importCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config, applies flag overrides and starts logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	paths := validation.NewPathValidator()
	if dbPath != "" {
		clean, err := paths.Clean(dbPath)
		if err != nil {
			return nil, fmt.Errorf("--db: %w", err)
		}
		cfg.Database.Path = clean
		// keep the index next to an overridden cache
		if clean != validation.MemoryPath {
			cfg.Database.SearchIndex = filepath.Join(filepath.Dir(clean), "index.bleve")
		}
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := validation.NewPathValidator().PrepareFile(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStoreWithTimeout(path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	return store, nil
}

// openBackend picks where articles come from: the functions when online, the
// cache when offline.
func openBackend(cfg *config.Config, store *storage.Store) (source.Backend, error) {
	if offline {
		return source.NewLocal(store), nil
	}
	base, err := validation.NewAPIURLValidator().ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api.base_url: %w", err)
	}
	cfg.API.BaseURL = base
	return source.NewRemote(api.NewClient(cfg), store), nil
}

// openSearcher prefers the bleve index and falls back to in-memory scoring
// when the index cannot be opened.
func openSearcher(cfg *config.Config, lister search.ArticleLister) (search.Searcher, func()) {
	be, err := search.NewBleveEngine(lister, cfg.Database.SearchIndex)
	if err != nil {
		debuglog.Warnf("search index unavailable, using in-memory search: %v", err)
		return search.NewEngine(lister), func() {}
	}
	return be, func() { _ = be.Close() }
}

// initialLocation turns --link into a navigation location. A bare value is
// taken as an article id.
func initialLocation(value string) string {
	switch {
	case value == "":
		return navigation.HomeLocation
	case navigation.ArticleID(value) != "":
		return value
	default:
		return navigation.ArticleLocation(value)
	}
}

func runReader(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	backend, err := openBackend(cfg, store)
	if err != nil {
		return err
	}

	searcher, closeSearch := openSearcher(cfg, store)
	defer closeSearch()

	app := tui.NewApp(cfg, tui.Options{
		Source:          backend,
		Publisher:       backend,
		Searcher:        searcher,
		Launcher:        media.NewLauncher(cfg),
		InitialLocation: initialLocation(link),
		Offline:         offline,
	})
	debuglog.Infof("starting reader on %s", backend.Name())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("running reader: %w", err)
	}
	return nil
}
