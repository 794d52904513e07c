package recommend

import (
	"context"
	"fmt"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/similarity/index"
)

// OpenOptions controls Open.
type OpenOptions struct {
	CatalogPath string
	// IndexDir is where a persisted similarity index is looked up; empty disables it.
	IndexDir string
	// Persist writes a freshly computed index to IndexDir.
	Persist bool
	Workers int
	K       int
}

// Engine bundles the catalog, its ranker and the session cache.
type Engine struct {
	Catalog *catalog.Catalog
	Ranker  *Ranker
	Session *Session
	// Source is "index" when the matrix came from disk, "computed" otherwise.
	Source string
}

// Open loads the catalog and its similarity matrix. A persisted index is used
// when it matches the catalog; otherwise the matrix is computed in memory.
func Open(ctx context.Context, opts OpenOptions) (*Engine, error) {
	cat, err := catalog.Load(opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	return OpenCatalog(ctx, cat, opts)
}

// OpenCatalog is Open for an already loaded catalog.
func OpenCatalog(ctx context.Context, cat *catalog.Catalog, opts OpenOptions) (*Engine, error) {
	if cat.Len() == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	var (
		idx    *index.Index
		source = "index"
	)
	if opts.IndexDir != "" {
		loaded, err := index.LoadFor(opts.IndexDir, cat.Hash())
		if err != nil {
			logging.Debug().Err(err).Str("dir", opts.IndexDir).Msg("similarity index unavailable, computing")
		} else {
			idx = loaded
		}
	}
	if idx == nil {
		source = "computed"
		computed, err := index.Compute(ctx, cat, opts.Workers)
		if err != nil {
			return nil, fmt.Errorf("cannot build similarity matrix: %w", err)
		}
		idx = computed
		if opts.Persist && opts.IndexDir != "" {
			if err := index.Install(idx, opts.IndexDir); err != nil {
				logging.Warn().Err(err).Str("dir", opts.IndexDir).Msg("cannot persist similarity index")
			}
		}
	}

	r, err := NewRanker(cat, idx.Matrix, opts.K)
	if err != nil {
		return nil, err
	}
	return &Engine{Catalog: cat, Ranker: r, Session: &Session{}, Source: source}, nil
}

// Recommend ranks q and records the result as the session's last set.
func (e *Engine) Recommend(q Query) (Result, error) {
	recs, err := e.Ranker.Rank(q)
	if err != nil {
		return Result{}, err
	}
	m, _ := e.Catalog.Lookup(q.Title)
	return e.Session.Remember(q.Title, m.Title, recs), nil
}
