package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/diffdeck/internal/config"
	"github.com/zjrosen/diffdeck/internal/flags"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/paths"
	"github.com/zjrosen/diffdeck/internal/prefs"
	"github.com/zjrosen/diffdeck/internal/session"
	"github.com/zjrosen/diffdeck/internal/tracing"
	"github.com/zjrosen/diffdeck/internal/ui/diffviewer"
	"github.com/zjrosen/diffdeck/internal/ui/styles"
	"github.com/zjrosen/diffdeck/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "diffdeck",
	Short:   "A terminal ui for browsing git diffs",
	Long:    `A terminal user interface for reviewing git diffs: uncommitted changes, single commits, or the whole branch, with per-file collapse state, word-level highlighting, and auto-refresh.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/diffdeck/config.yaml)")
	rootCmd.Flags().StringP("work-dir", "w", "",
		"worktree to diff (default: current directory)")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic refresh when the worktree changes")
	rootCmd.Flags().Bool("debug", false,
		"write debug logs to .diffdeck/debug.log")

	_ = viper.BindPFlag("work_dir", rootCmd.Flags().Lookup("work-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("auto_refresh_debounce", defaults.AutoRefreshDebounce)
	viper.SetDefault("ui.diff_style", defaults.UI.DiffStyle)
	viper.SetDefault("ui.theme", defaults.UI.Theme)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.word_diff", defaults.UI.WordDiff)
	viper.SetDefault("engine.auto_collapse_threshold", defaults.Engine.AutoCollapseThreshold)
	viper.SetDefault("engine.expand_batch_size", defaults.Engine.ExpandBatchSize)
	viper.SetDefault("engine.max_prefetch", defaults.Engine.MaxPrefetch)
	viper.SetDefault("engine.fetch_timeout_ms", defaults.Engine.FetchTimeoutMS)
	viper.SetDefault("engine.highlight_ms", defaults.Engine.HighlightMS)
	viper.SetDefault("engine.collapsed_height", defaults.Engine.CollapsedHeight)
	viper.SetDefault("engine.header_height", defaults.Engine.HeaderHeight)
	viper.SetDefault("engine.per_line_height", defaults.Engine.PerLineHeight)
	viper.SetDefault("engine.min_file_height", defaults.Engine.MinFileHeight)
	viper.SetDefault("engine.max_file_height", defaults.Engine.MaxFileHeight)
	viper.SetDefault("engine.overscan", defaults.Engine.Overscan)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .diffdeck/config.yaml (current directory, following
		//    worktree redirects)
		// 2. ~/.config/diffdeck/config.yaml (user config)
		localCfg := filepath.Join(paths.ResolveDataDir(""), "config.yaml")
		if _, err := os.Stat(localCfg); err == nil {
			viper.SetConfigFile(localCfg)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "diffdeck"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("DIFFDECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .diffdeck/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := filepath.Join(paths.ResolveDataDir(""), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug || os.Getenv("DIFFDECK_DEBUG") != "" {
		logDir := paths.ResolveDataDir(workDir)
		if err := os.MkdirAll(logDir, 0o750); err == nil {
			if cleanup, err := log.Init(filepath.Join(logDir, "debug.log")); err == nil {
				defer cleanup()
			}
		}
	}

	source := git.NewRealSource(workDir)
	if !source.IsGitRepo() {
		return fmt.Errorf("%s is not inside a git repository", workDir)
	}

	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	styles.ApplyTheme(cfg.UI.ThemeMuted, cfg.UI.ThemeError, cfg.UI.ThemeSuccess)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	if provider.Enabled() {
		log.Info(log.CatTrace, "tracing enabled", "exporter", cfg.Tracing.Exporter)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	store := openPrefs()
	if store != nil {
		defer store.Close()
		applyStoredPrefs(store)
	}

	sess := session.New(session.Options{
		Source: source,
		Engine: cfg.Engine,
		Tracer: provider.Tracer(),
	})
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watchCh <-chan struct{}
	if cfg.AutoRefresh {
		root, err := source.RepoRoot()
		if err != nil {
			root = workDir
		}
		wcfg := watcher.DefaultConfig(root)
		if cfg.AutoRefreshDebounce > 0 {
			wcfg.DebounceDur = time.Duration(cfg.AutoRefreshDebounce) * time.Millisecond
		}
		w, err := watcher.New(wcfg)
		if err != nil {
			log.Warn(log.CatWatch, "watcher unavailable", "error", err.Error())
		} else if ch, err := w.Start(); err != nil {
			log.Warn(log.CatWatch, "watcher start failed", "error", err.Error())
		} else {
			watchCh = ch
			defer func() { _ = w.Stop() }()
		}
	}

	model := diffviewer.New(ctx, diffviewer.Options{
		Session:    sess,
		Source:     source,
		Store:      store,
		Config:     cfg,
		ConfigPath: viper.ConfigFileUsed(),
		WatchCh:    watchCh,
		Flags:      flags.New(cfg.Flags),
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// openPrefs opens the preference database next to the user config.
// Failures degrade to no persistence instead of refusing to start.
func openPrefs() *prefs.Store {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	store, err := prefs.Open(filepath.Join(home, ".config", "diffdeck", "prefs.db"))
	if err != nil {
		log.Warn(log.CatPrefs, "preference store unavailable", "error", err.Error())
		return nil
	}
	return store
}

// applyStoredPrefs overlays persisted UI choices on the loaded config.
// The database is the live record of toggles made in the app; the yaml
// file only provides initial values.
func applyStoredPrefs(store *prefs.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if style, ok, err := store.Get(ctx, prefs.KeyDiffStyle); err == nil && ok {
		cfg.UI.DiffStyle = style
	}
	if theme, ok, err := store.Get(ctx, prefs.KeyTheme); err == nil && ok {
		cfg.UI.Theme = theme
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
