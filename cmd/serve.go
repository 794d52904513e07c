package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/api"
	"github.com/kamusis/cinerec/internal/enrich"
	"github.com/kamusis/cinerec/internal/logging"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over a JSON HTTP API",
	Long: `Start the JSON API:

  GET    /healthz
  GET    /metrics
  GET    /api/v1/movies?q=&prefix=&limit=
  GET    /api/v1/movies/info?sample=
  GET    /api/v1/recommendations?title=&k=&filter=
  GET    /api/v1/pages?title=&k=&filter=
  GET    /api/v1/session/last
  DELETE /api/v1/session/last`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default serve.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagLogFormat == "" {
		logging.Init(logging.Config{Level: levelOr(cfg.Log.Level, "info"), Format: "json"})
	}

	engine, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	logging.Info().Int("movies", engine.Catalog.Len()).Str("matrix", engine.Source).Msg("catalog loaded")

	pages := &enrich.Service{
		Recommender: engine,
		Reviews:     newScraper(cfg),
		Classifier:  newClassifier(cfg),
	}
	client, cleanup, err := newTMDb(cmd.Context(), cfg, apiKey())
	defer cleanup()
	if err != nil {
		logging.Warn().Err(err).Msg("TMDb disabled, pages will carry recommendations only")
		pages.MoviesErr = err
	} else {
		pages.Movies = client
	}

	addr := flagServeAddr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	srv := api.New(api.Options{
		Engine:          engine,
		Pages:           pages,
		CORSOrigins:     cfg.Serve.CORSOrigins,
		RateLimitPerMin: cfg.Serve.RateLimitPerMin,
		Metrics:         cfg.Serve.Metrics,
	})
	return srv.ListenAndServe(cmd.Context(), addr)
}

// levelOr keeps an explicit level but raises the CLI default of warn.
func levelOr(level, def string) string {
	if flagLogLevel != "" {
		return flagLogLevel
	}
	if level == "" || level == "warn" {
		return def
	}
	return level
}
