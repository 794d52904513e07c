package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/similarity/index"
)

var (
	flagIndexForce bool
	flagIndexLock  time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Precompute and persist the similarity matrix",
	Long: `Build the cosine similarity matrix for the catalog and store it in the
index directory. Later commands load it instead of recomputing, as long as
the catalog file is unchanged.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Rebuild even if the index matches the catalog")
	indexCmd.Flags().DurationVar(&flagIndexLock, "lock-timeout", 30*time.Second, "How long to wait for another build to finish")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.IndexDir == "" {
		return fmt.Errorf("index_dir is not configured")
	}
	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return err
	}

	release, err := index.Lock(cfg.IndexDir, flagIndexLock)
	if err != nil {
		return err
	}
	defer release()

	tmp, err := os.MkdirTemp(filepath.Dir(cfg.IndexDir), filepath.Base(cfg.IndexDir)+"-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	start := time.Now()
	idx, reused, err := index.Build(cmd.Context(), cat, index.BuildOptions{
		OutDir:      tmp,
		ExistingDir: cfg.IndexDir,
		Force:       flagIndexForce,
		Workers:     cfg.Workers,
	})
	if err != nil {
		return err
	}
	if reused {
		printSkip("", fmt.Sprintf("index is up to date (%d movies): %s", idx.Manifest.Movies, cfg.IndexDir))
		return nil
	}
	if err := index.AtomicSwap(tmp, cfg.IndexDir); err != nil {
		return fmt.Errorf("cannot install index: %w", err)
	}
	printOK("", fmt.Sprintf("indexed %d movies, %d terms in %s", idx.Manifest.Movies, idx.Manifest.VocabSize, time.Since(start).Round(time.Millisecond)))
	printInfo("", cfg.IndexDir)
	return nil
}
