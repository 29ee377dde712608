// Package cmd wires the CLI: harvest search results, filter them, and render
// accepted posts to PDF.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hwibalyu/geminaverblog/internal/config"
	"github.com/hwibalyu/geminaverblog/internal/gemini"
	"github.com/hwibalyu/geminaverblog/internal/metrics"
	"github.com/hwibalyu/geminaverblog/internal/storage"
	"github.com/hwibalyu/geminaverblog/internal/storage/jsonbackend"
	"github.com/hwibalyu/geminaverblog/internal/storage/postgres"
	"github.com/hwibalyu/geminaverblog/internal/storage/sqlite"
)

var (
	cfgFile     string
	apiKeyFlag  string
	logLevel    string
	logJSON     bool
	metricsPort int

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geminaverblog",
	Short: "Harvest Naver blog search results and render relevant posts to PDF",
	Long: `geminaverblog walks Naver blog-section search results for a keyword and
date range, prunes the list through a Gemini relevance gate, and renders each
accepted post to a PDF with a provenance banner.

Commands:
  harvest   Collect search results into <keyword>/<keyword>_rawdata.json
  run       Harvest, filter, and render in one pass
  render    Filter and render a previously harvested result set`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if apiKeyFlag != "" {
			cfg.Gemini.APIKey = apiKeyFlag
		}
		if cmd.Flags().Changed("log") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-json") {
			cfg.Log.JSON = logJSON
		}
		if cmd.Flags().Changed("metrics-port") {
			cfg.Metrics.Port = metricsPort
		}

		logger, err = buildLogger(cfg.Log)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default geminaverblog.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "",
		"Gemini API key (overrides GEMINI_API_KEY and the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit logs as JSON")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0,
		"Expose Prometheus metrics on this port (0 disables)")
}

func buildLogger(lc config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", lc.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

func newGeminiClient() (*gemini.Client, error) {
	return gemini.New(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
}

func newOutcomeStore(ctx context.Context) (storage.OutcomeStore, error) {
	switch cfg.Storage.Backend {
	case "json":
		return jsonbackend.New(cfg.Storage.Path)
	case "sqlite":
		return sqlite.New(cfg.Storage.Path)
	case "postgres":
		return postgres.New(ctx, cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// startMetrics starts the /metrics server when a port is configured. The
// returned stop func is a no-op otherwise.
func startMetrics() func() {
	if cfg.Metrics.Port <= 0 {
		return func() {}
	}
	srv := metrics.Start(cfg.Metrics.Port)
	logger.Info("metrics server started", "port", cfg.Metrics.Port)
	return func() {
		if err := srv.Stop(context.Background()); err != nil {
			logger.Warn("metrics server shutdown failed", "err", err)
		}
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
