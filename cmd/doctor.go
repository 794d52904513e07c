package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/cache"
	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/config"
	"github.com/kamusis/cinerec/internal/sentiment"
	"github.com/kamusis/cinerec/internal/similarity/index"
	"github.com/kamusis/cinerec/internal/tmdb"
)

var flagDoctorTestKey bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that cinerec's config, catalog, index, sentiment model, TMDb key
and cache are correctly set up. Run this command when something seems wrong.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&flagDoctorTestKey, "test-key", false, "Verify the TMDb API key with a live request")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("cinerec doctor")
	fmt.Fprintln(stdout)

	// ── Config ────────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ cinerec.yaml ]")
	_, loadErr := config.Load(flagConfig)
	switch {
	case errors.Is(loadErr, config.ErrNoConfig):
		printWarn("", "no config file, using defaults (run 'cinerec init' to create one)")
	case loadErr != nil:
		failD("%v", loadErr)
	default:
		printOK("", "config is valid")
	}
	cfg, err := loadConfig()
	if err != nil {
		failD("%v", err)
		return fmt.Errorf("doctor found problems")
	}
	fmt.Fprintln(stdout)

	// ── Catalog ───────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Catalog ]")
	var cat *catalog.Catalog
	if _, err := os.Stat(cfg.CatalogPath()); os.IsNotExist(err) {
		failD("%s not found; run 'cinerec setup <project-dir>'", cfg.CatalogPath())
	} else if cat, err = catalog.Load(cfg.CatalogPath()); err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("%d movies: %s", cat.Len(), cfg.CatalogPath()))
	}
	fmt.Fprintln(stdout)

	// ── Similarity index ──────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Similarity index ]")
	switch {
	case cat == nil:
		printSkip("", "skipped (catalog not loaded)")
	case cfg.IndexDir == "":
		printSkip("", "index_dir not configured; the matrix is computed on every run")
	default:
		if _, err := index.LoadFor(cfg.IndexDir, cat.Hash()); err == nil {
			printOK("", "up to date: "+cfg.IndexDir)
		} else if errors.Is(err, index.ErrStale) {
			printWarn("", "built from a different catalog; run 'cinerec index'")
		} else {
			printWarn("", "not built yet; run 'cinerec index' to speed up startup")
		}
	}
	fmt.Fprintln(stdout)

	// ── Sentiment ─────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Sentiment model ]")
	if mc, err := sentiment.LoadModel(cfg.VectorizerPath(), cfg.ModelPath()); err != nil {
		printWarn("", fmt.Sprintf("model unavailable, keyword analysis will be used: %v", err))
	} else {
		printOK("", "loaded "+mc.Name())
	}
	fmt.Fprintln(stdout)

	// ── TMDb ──────────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ TMDb API key ]")
	key := apiKey()
	if err := tmdb.ValidateAPIKey(key); err != nil {
		printWarn("", fmt.Sprintf("%v; details, posters and reviews are disabled", err))
	} else {
		printOK("", "API key format looks valid")
		if flagDoctorTestKey {
			client, cleanup, err := newTMDb(cmd.Context(), cfg, key)
			if err == nil {
				err = client.Test(cmd.Context())
			}
			cleanup()
			if err != nil {
				failD("API key test failed: %v", err)
			} else {
				printOK("", "API key is working")
			}
		}
	}
	fmt.Fprintln(stdout)

	// ── Cache ─────────────────────────────────────────────────────────────────
	fmt.Fprintln(stdout, "[ Response cache ]")
	redisPassword, _ := config.GetConfigValue("CINEREC_REDIS_PASSWORD")
	store, err := cache.New(cmd.Context(), cfg.Cache, redisPassword)
	switch {
	case err != nil:
		failD("%v", err)
	case store == nil:
		printSkip("", "disabled")
	default:
		if store.Name() != cfg.Cache.Backend {
			printWarn("", fmt.Sprintf("%s unavailable, falling back to %s", cfg.Cache.Backend, store.Name()))
		} else {
			printOK("", fmt.Sprintf("%s (ttl %s)", store.Name(), cfg.Cache.TTL.Round(time.Second)))
		}
		_ = store.Close()
	}
	fmt.Fprintln(stdout)

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	printOK("", "all checks passed")
	return nil
}
