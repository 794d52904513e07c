package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/cache"
	"github.com/kamusis/cinerec/internal/config"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/recommend"
	"github.com/kamusis/cinerec/internal/reviews"
	"github.com/kamusis/cinerec/internal/sentiment"
	"github.com/kamusis/cinerec/internal/tmdb"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagAPIKey    string
)

var rootCmd = &cobra.Command{
	Use:          "cinerec",
	Short:        "cinerec: content-based movie recommendations",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `cinerec recommends movies similar to a title from a local catalog,
and enriches them with TMDb details and IMDb review sentiment.

Configuration lives in ~/.cinerec/cinerec.yaml, secrets in ~/.cinerec/.env.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, format := flagLogLevel, flagLogFormat
		if cfg, err := config.LoadOrDefault(flagConfig); err == nil {
			if level == "" {
				level = cfg.Log.Level
			}
			if format == "" {
				format = cfg.Log.Format
			}
		}
		logging.Init(logging.Config{Level: level, Format: format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.cinerec/cinerec.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "TMDb API key (overrides TMDB_API_KEY)")
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}

// openEngine loads the catalog and its similarity matrix, persisting a fresh
// index for the next run.
func openEngine(ctx context.Context, cfg *config.Config) (*recommend.Engine, error) {
	e, err := recommend.Open(ctx, recommend.OpenOptions{
		CatalogPath: cfg.CatalogPath(),
		IndexDir:    cfg.IndexDir,
		Persist:     true,
		Workers:     cfg.Workers,
		K:           cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w\nRun 'cinerec setup <project-dir>' to copy main_data.csv into %s.", err, cfg.DataDir)
	}
	return e, nil
}

// apiKey resolves the TMDb key from the flag, then the environment and .env.
func apiKey() string {
	if flagAPIKey != "" {
		return flagAPIKey
	}
	key, err := config.APIKey()
	if err != nil {
		logging.Debug().Err(err).Msg("cannot read .env")
	}
	return key
}

// newTMDb returns a client, or nil when no usable key is configured. The
// returned cleanup closes the response cache.
func newTMDb(ctx context.Context, cfg *config.Config, key string) (*tmdb.Client, func(), error) {
	if err := tmdb.ValidateAPIKey(key); err != nil {
		return nil, func() {}, err
	}
	redisPassword, _ := config.GetConfigValue("CINEREC_REDIS_PASSWORD")
	store, err := cache.New(ctx, cfg.Cache, redisPassword)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {}
	if store != nil {
		cleanup = func() { _ = store.Close() }
	}
	c := tmdb.New(tmdb.Options{
		BaseURL:           cfg.TMDb.BaseURL,
		ImageBaseURL:      cfg.TMDb.ImageBaseURL,
		APIKey:            key,
		Timeout:           cfg.TMDb.Timeout,
		RequestsPerSecond: cfg.TMDb.RequestsPerSecond,
		Burst:             cfg.TMDb.Burst,
		Cache:             store,
		CacheTTL:          cfg.Cache.TTL,
	})
	return c, cleanup, nil
}

func newScraper(cfg *config.Config) *reviews.Scraper {
	return reviews.New(cfg.IMDb.BaseURL, cfg.IMDb.UserAgent, cfg.IMDb.MaxReviews, cfg.IMDb.Timeout)
}

func newClassifier(cfg *config.Config) sentiment.Classifier {
	return sentiment.Load(cfg.VectorizerPath(), cfg.ModelPath())
}
