package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/metrics"
	"github.com/kamusis/cinerec/internal/similarity"
)

// BuildOptions controls index building.
type BuildOptions struct {
	// OutDir receives the new artifacts. Required unless the existing index is reused.
	OutDir string
	// ExistingDir holds the currently installed index, if any.
	ExistingDir string
	Force       bool
	Workers     int
}

// Compute vectorizes the catalog and builds its similarity matrix in memory.
func Compute(ctx context.Context, cat *catalog.Catalog, workers int) (*Index, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	start := time.Now()
	voc, vecs := similarity.Fit(cat.Features())
	m, err := similarity.BuildMatrix(ctx, vecs, workers)
	if err != nil {
		return nil, err
	}
	metrics.SimilarityBuildDuration.Observe(time.Since(start).Seconds())
	logging.Debug().
		Int("movies", cat.Len()).
		Int("vocab", voc.Len()).
		Dur("took", time.Since(start)).
		Msg("similarity matrix built")

	titles := make([]TitleEntry, cat.Len())
	for i, mv := range cat.Movies() {
		titles[i] = TitleEntry{Index: i, Title: mv.Title}
	}
	return &Index{
		Manifest: Manifest{
			IndexVersion: Version,
			CreatedAt:    time.Now().UTC().Format(time.RFC3339),
			CatalogHash:  cat.Hash(),
			Movies:       cat.Len(),
			VocabSize:    voc.Len(),
			MatrixFile:   DefaultMatrixFile,
			TitlesFile:   DefaultTitlesFile,
		},
		Titles: titles,
		Matrix: m,
	}, nil
}

// Build returns an index for cat. An index in ExistingDir built from the same
// catalog is reused unless Force is set; the second return value reports reuse.
// A fresh build is written to OutDir and it is the caller's job to install it
// with AtomicSwap.
func Build(ctx context.Context, cat *catalog.Catalog, opts BuildOptions) (*Index, bool, error) {
	if opts.ExistingDir != "" && !opts.Force {
		if idx, err := LoadFor(opts.ExistingDir, cat.Hash()); err == nil {
			return idx, true, nil
		}
	}
	if opts.OutDir == "" {
		return nil, false, fmt.Errorf("out dir is required")
	}

	idx, err := Compute(ctx, cat, opts.Workers)
	if err != nil {
		return nil, false, err
	}
	if err := Write(opts.OutDir, idx.Manifest, idx.Titles, idx.Matrix); err != nil {
		return nil, false, err
	}
	return idx, false, nil
}

// AtomicSwap replaces destDir with srcDir by renaming.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}

// Install writes idx to a temp dir beside dir and swaps it into place while
// holding the build lock.
func Install(idx *Index, dir string) error {
	release, err := Lock(dir, 30*time.Second)
	if err != nil {
		return err
	}
	defer release()

	tmp, err := os.MkdirTemp(filepath.Dir(dir), filepath.Base(dir)+"-*")
	if err != nil {
		return fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := Write(tmp, idx.Manifest, idx.Titles, idx.Matrix); err != nil {
		return err
	}
	if err := AtomicSwap(tmp, dir); err != nil {
		return fmt.Errorf("cannot install index: %w", err)
	}
	return nil
}
