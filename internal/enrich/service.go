package enrich

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/recommend"
	"github.com/kamusis/cinerec/internal/sentiment"
	"github.com/kamusis/cinerec/internal/tmdb"
)

const (
	// DefaultPosterCount is how many recommendations get a poster.
	DefaultPosterCount = 5
	// CastCount is how many cast members a page lists.
	CastCount = 5
)

// Recommender produces the recommendation set for a title.
type Recommender interface {
	Recommend(q recommend.Query) (recommend.Result, error)
}

// Movies is the subset of the TMDb client a page needs.
type Movies interface {
	Lookup(ctx context.Context, title string) (*tmdb.Movie, *tmdb.Credits, error)
	SearchMovie(ctx context.Context, query string) ([]tmdb.SearchResult, error)
	ImageURL(path, size string) string
}

// ReviewFetcher returns review texts for an IMDb id.
type ReviewFetcher interface {
	Fetch(ctx context.Context, imdbID string) ([]string, error)
}

// Service builds pages. Movies, Reviews and Classifier may be nil; the page
// then carries a warning for the missing part.
type Service struct {
	Recommender Recommender
	Movies      Movies
	// MoviesErr is why Movies is nil; it becomes the page warning.
	MoviesErr   error
	Reviews     ReviewFetcher
	Classifier  sentiment.Classifier
	// PosterCount defaults to DefaultPosterCount.
	PosterCount int
	// Concurrency bounds parallel poster lookups; default 4.
	Concurrency int
}

func unavailable(err error) string {
	var invalid *tmdb.InvalidKeyError
	switch {
	case err == nil, errors.Is(err, tmdb.ErrMissingAPIKey):
		return "TMDb API key not configured: movie details and posters are unavailable"
	case errors.As(err, &invalid):
		return "Invalid API key: " + invalid.Reason
	default:
		return "TMDb unavailable: " + err.Error()
	}
}

// Page builds the page for title. The only error returned is the ranker's
// (recommend.ErrNotFound for an unknown title); every other failure becomes
// a warning on the page.
func (s *Service) Page(ctx context.Context, q recommend.Query) (*Page, error) {
	res, err := s.Recommender.Recommend(q)
	if err != nil {
		return nil, err
	}
	page := &Page{
		ResultID:        res.ID,
		Query:           res.Query,
		Title:           res.Title,
		Recommendations: make([]RecommendedMovie, len(res.Recommendations)),
	}
	for i, r := range res.Recommendations {
		page.Recommendations[i] = RecommendedMovie{
			Index:   r.Index,
			Title:   r.Title,
			Display: catalog.DisplayTitle(r.Title),
			Score:   r.Score,
		}
	}

	if s.Movies == nil {
		page.warn("%s", unavailable(s.MoviesErr))
		return page, nil
	}

	s.details(ctx, page)
	s.posters(ctx, page)
	return page, nil
}

func (s *Service) details(ctx context.Context, page *Page) {
	m, credits, err := s.Movies.Lookup(ctx, page.Title)
	switch {
	case errors.Is(err, tmdb.ErrNoMatch):
		page.warn("No movie found with title: %s", page.Title)
		return
	case err != nil:
		page.warn("Could not fetch movie details: %v", err)
		return
	}

	page.Movie = &MovieInfo{
		TMDbID:         m.ID,
		IMDbID:         m.IMDbID,
		Title:          m.Title,
		Overview:       m.Overview,
		ReleaseDate:    m.ReleaseDate,
		RuntimeMinutes: m.Runtime,
		Runtime:        FormatRuntime(m.Runtime),
		Rating:         m.VoteAverage,
		VoteCount:      m.VoteCount,
		Genres:         m.GenreNames(),
		PosterURL:      s.Movies.ImageURL(m.PosterPath, tmdb.PosterSize),
	}
	if m.VoteCount > 0 {
		page.Movie.Votes = FormatVotes(m.VoteCount)
	}
	for _, c := range credits.Top(CastCount) {
		page.Cast = append(page.Cast, CastInfo{
			Name:       c.Name,
			Character:  c.Character,
			ProfileURL: s.Movies.ImageURL(c.ProfilePath, tmdb.ProfileSize),
		})
	}

	if m.IMDbID == "" || s.Reviews == nil {
		return
	}
	texts, err := s.Reviews.Fetch(ctx, m.IMDbID)
	if err != nil {
		page.warn("Could not fetch reviews: %v", err)
		return
	}
	if len(texts) == 0 {
		return
	}
	page.Reviews = sentiment.Analyze(s.Classifier, texts)
	summary := sentiment.Summarize(page.Reviews)
	page.Sentiment = &summary
}

func (s *Service) posters(ctx context.Context, page *Page) {
	n := s.PosterCount
	if n <= 0 {
		n = DefaultPosterCount
	}
	n = min(n, len(page.Recommendations))
	limit := s.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		rec := &page.Recommendations[i]
		g.Go(func() error {
			hits, err := s.Movies.SearchMovie(gctx, rec.Title)
			if err != nil {
				logging.Debug().Err(err).Str("title", rec.Title).Msg("poster lookup failed")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			if len(hits) > 0 {
				rec.PosterURL = s.Movies.ImageURL(hits[0].PosterPath, tmdb.ThumbSize)
			}
			return nil
		})
	}
	_ = g.Wait()
	if failed > 0 {
		page.warn("Could not fetch posters for %d of %d recommendations", failed, n)
	}
}
