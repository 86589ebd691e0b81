// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autoembed/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagWidth     int
	flagHeight    int
	flagParams    map[string]string
	flagProviders string
	flagNoFetch   bool
	flagNoCache   bool
	flagNoHistory bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

// logger is the CLI's logger, configured in loadConfig.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "autoembed [url]",
	Short: "Turn media page URLs into embed markup",
	Long: `Autoembed recognises links to video, audio and slideshow sites and turns
them into the <object> markup needed to embed the media in a page.
It can also rewrite whole posts and serve a live preview of them.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              embedRun,
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "autoembed %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagWidth, "width", "W", 0, "Embed width (default: the provider's)")
	rootCmd.PersistentFlags().IntVarP(&flagHeight, "height", "H", 0, "Embed height (default: the provider's)")
	rootCmd.PersistentFlags().StringToStringVarP(&flagParams, "param", "p", nil, "Override a <param>, as name=value (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagProviders, "providers", "", "TOML file with extra provider rules, matched first")
	rootCmd.PersistentFlags().BoolVar(&flagNoFetch, "no-fetch", false, "Never fetch pages; providers that need one fail")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the page cache")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record resolutions in history")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	addEmbedFlags(rootCmd)

	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagWidth != 0 {
		cfg.Width = flagWidth
	}
	if flagHeight != 0 {
		cfg.Height = flagHeight
	}
	if len(flagParams) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string, len(flagParams))
		}
		for name, value := range flagParams {
			cfg.Params[name] = value
		}
	}
	if flagProviders != "" {
		cfg.ProvidersFile = flagProviders
	}
	if flagNoFetch {
		cfg.Fetch = false
	}
	if flagNoCache {
		cfg.Cache = false
	}
	if flagNoHistory {
		cfg.History = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}
