// Package recommend ranks catalog movies by content similarity to a query title.
package recommend

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/metrics"
)

// DefaultK is the number of recommendations returned when k is not set.
const DefaultK = 10

// NotFoundMessage is the user-facing text for an unknown title.
const NotFoundMessage = "Sorry! The movie you requested is not in our database. Please check the spelling or try with some other movies"

// ErrNotFound is returned when a title has no case-insensitive match in the catalog.
var ErrNotFound = errors.New("movie not found")

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Scores is a symmetric similarity lookup over catalog positions.
type Scores interface {
	Len() int
	At(i, j int) float64
}

// Recommendation is one ranked movie.
type Recommendation struct {
	Index int     `json:"index"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Query selects what Rank returns.
type Query struct {
	Title string
	// K caps the result size; <= 0 means the ranker default.
	K int
	// Filter, when set, drops candidates before the cut to K.
	Filter *Filter
}

// Ranker returns the most similar movies for a title.
type Ranker struct {
	catalog *catalog.Catalog
	scores  Scores
	k       int
}

// NewRanker returns a ranker over cat. scores must cover every catalog position.
func NewRanker(cat *catalog.Catalog, scores Scores, k int) (*Ranker, error) {
	if scores.Len() != cat.Len() {
		return nil, fmt.Errorf("similarity covers %d movies, catalog has %d", scores.Len(), cat.Len())
	}
	if k <= 0 {
		k = DefaultK
	}
	return &Ranker{catalog: cat, scores: scores, k: k}, nil
}

// Catalog returns the catalog the ranker serves.
func (r *Ranker) Catalog() *catalog.Catalog { return r.catalog }

// Recommend returns the k movies most similar to title, best first.
func (r *Ranker) Recommend(title string, k int) ([]Recommendation, error) {
	return r.Rank(Query{Title: title, K: k})
}

// Rank resolves q.Title case-insensitively and ranks every other movie by
// descending similarity, breaking ties by catalog order. The query movie is
// never part of the result.
func (r *Ranker) Rank(q Query) ([]Recommendation, error) {
	m, ok := r.catalog.Lookup(q.Title)
	if !ok {
		metrics.RecommendationsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %q", ErrNotFound, q.Title)
	}
	k := q.K
	if k <= 0 {
		k = r.k
	}

	cands := make([]Recommendation, 0, r.catalog.Len()-1)
	for j := 0; j < r.catalog.Len(); j++ {
		if j == m.Index {
			continue
		}
		cands = append(cands, Recommendation{Index: j, Score: r.scores.At(m.Index, j)})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].Score == cands[b].Score {
			return cands[a].Index < cands[b].Index
		}
		return cands[a].Score > cands[b].Score
	})

	out := make([]Recommendation, 0, min(k, len(cands)))
	for _, c := range cands {
		if len(out) == k {
			break
		}
		mv := r.catalog.Movie(c.Index)
		if mv.Title == "" {
			continue
		}
		c.Title = mv.Title
		if q.Filter != nil && !q.Filter.Match(c, mv) {
			continue
		}
		out = append(out, c)
	}
	metrics.RecommendationsTotal.WithLabelValues("ok").Inc()
	return out, nil
}
