package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kamusis/cinerec/internal/recommend"
	"github.com/kamusis/cinerec/internal/sentiment"
	"github.com/kamusis/cinerec/internal/tmdb"
)

type fakeRecommender struct {
	recs []recommend.Recommendation
}

func (f fakeRecommender) Recommend(q recommend.Query) (recommend.Result, error) {
	if q.Title != "avatar" {
		return recommend.Result{}, recommend.ErrNotFound
	}
	return recommend.Result{ID: "r1", Query: q.Title, Title: "avatar", Recommendations: f.recs}, nil
}

type fakeMovies struct {
	mu        sync.Mutex
	searched  []string
	lookupErr error
	failFor   string
}

func (f *fakeMovies) Lookup(_ context.Context, title string) (*tmdb.Movie, *tmdb.Credits, error) {
	if f.lookupErr != nil {
		return nil, nil, f.lookupErr
	}
	m := &tmdb.Movie{ID: 19995, IMDbID: "tt0499549", Title: "Avatar", Runtime: 162, VoteCount: 31250, VoteAverage: 7.6, PosterPath: "/av.jpg",
		Genres: []tmdb.Genre{{Name: "Action"}, {Name: "Adventure"}}}
	cr := &tmdb.Credits{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		cr.Cast = append(cr.Cast, tmdb.CastMember{Name: n, ProfilePath: "/" + n + ".jpg"})
	}
	return m, cr, nil
}

func (f *fakeMovies) SearchMovie(_ context.Context, q string) ([]tmdb.SearchResult, error) {
	f.mu.Lock()
	f.searched = append(f.searched, q)
	f.mu.Unlock()
	if q == f.failFor {
		return nil, errors.New("boom")
	}
	return []tmdb.SearchResult{{ID: 1, Title: q, PosterPath: "/" + q + ".jpg"}}, nil
}

func (f *fakeMovies) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "img/" + size + path
}

type fakeReviews struct {
	texts []string
	err   error
}

func (f fakeReviews) Fetch(context.Context, string) ([]string, error) { return f.texts, f.err }

func recs(n int) []recommend.Recommendation {
	out := make([]recommend.Recommendation, n)
	for i := range out {
		out[i] = recommend.Recommendation{Index: i + 1, Title: "movie " + string(rune('a'+i)), Score: 0.5}
	}
	return out
}

func TestPage_FullFlow(t *testing.T) {
	movies := &fakeMovies{}
	svc := &Service{
		Recommender: fakeRecommender{recs: recs(10)},
		Movies:      movies,
		Reviews:     fakeReviews{texts: []string{"loved it", "awful", "fine"}},
		Classifier:  sentiment.Keywords(),
	}
	page, err := svc.Page(context.Background(), recommend.Query{Title: "avatar"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", page.Warnings)
	}
	if page.Movie == nil || page.Movie.Runtime != "2h 42m" || page.Movie.Votes != "31,250" {
		t.Fatalf("movie = %+v", page.Movie)
	}
	if page.Movie.PosterURL != "img/w500/av.jpg" {
		t.Fatalf("poster = %q", page.Movie.PosterURL)
	}
	if len(page.Cast) != CastCount || page.Cast[0].ProfileURL != "img/w200/a.jpg" {
		t.Fatalf("cast = %+v", page.Cast)
	}
	if page.Sentiment == nil || page.Sentiment.Positive != 1 || page.Sentiment.Negative != 1 || page.Sentiment.Neutral != 1 {
		t.Fatalf("sentiment = %+v", page.Sentiment)
	}
	if len(page.Recommendations) != 10 {
		t.Fatalf("recommendations = %d", len(page.Recommendations))
	}
	for i, r := range page.Recommendations {
		if (i < DefaultPosterCount) != (r.PosterURL != "") {
			t.Errorf("rec %d poster %q", i, r.PosterURL)
		}
	}
	if page.Recommendations[0].Display != "Movie A" {
		t.Errorf("display = %q", page.Recommendations[0].Display)
	}
	if len(movies.searched) != DefaultPosterCount {
		t.Errorf("searched %d titles", len(movies.searched))
	}
}

func TestPage_NotFoundIsTheOnlyError(t *testing.T) {
	svc := &Service{Recommender: fakeRecommender{}}
	_, err := svc.Page(context.Background(), recommend.Query{Title: "nope"})
	if !recommend.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPage_FailuresBecomeWarnings(t *testing.T) {
	svc := &Service{
		Recommender: fakeRecommender{recs: recs(3)},
		Movies:      &fakeMovies{lookupErr: tmdb.ErrUnauthorized, failFor: "movie b"},
		Reviews:     fakeReviews{err: errors.New("HTTP 503")},
	}
	page, err := svc.Page(context.Background(), recommend.Query{Title: "avatar"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Movie != nil {
		t.Fatal("movie should be absent")
	}
	joined := strings.Join(page.Warnings, "\n")
	if !strings.Contains(joined, "Invalid API key") && !strings.Contains(joined, "invalid API key") {
		t.Errorf("missing details warning: %v", page.Warnings)
	}
	if !strings.Contains(joined, "1 of 3") {
		t.Errorf("missing poster warning: %v", page.Warnings)
	}
	if page.Recommendations[1].PosterURL != "" || page.Recommendations[0].PosterURL == "" {
		t.Errorf("posters = %+v", page.Recommendations)
	}
}

func TestPage_NoMatchAndNoClient(t *testing.T) {
	svc := &Service{Recommender: fakeRecommender{recs: recs(2)}, Movies: &fakeMovies{lookupErr: tmdb.ErrNoMatch}}
	page, err := svc.Page(context.Background(), recommend.Query{Title: "avatar"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Warnings) != 1 || page.Warnings[0] != "No movie found with title: avatar" {
		t.Fatalf("warnings = %v", page.Warnings)
	}

	svc = &Service{Recommender: fakeRecommender{recs: recs(2)}}
	page, err = svc.Page(context.Background(), recommend.Query{Title: "avatar"})
	if err != nil || len(page.Warnings) != 1 || len(page.Recommendations) != 2 {
		t.Fatalf("page = %+v, %v", page, err)
	}
}

func TestPage_ClientUnavailableReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "TMDb API key not configured: movie details and posters are unavailable"},
		{tmdb.ValidateAPIKey(""), "TMDb API key not configured: movie details and posters are unavailable"},
		{tmdb.ValidateAPIKey("short"), "Invalid API key: API key seems too short"},
		{errors.New("unknown cache backend \"floppy\""), "TMDb unavailable: unknown cache backend \"floppy\""},
	}
	for _, tt := range tests {
		svc := &Service{Recommender: fakeRecommender{recs: recs(1)}, MoviesErr: tt.err}
		page, err := svc.Page(context.Background(), recommend.Query{Title: "avatar"})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Warnings) != 1 || page.Warnings[0] != tt.want {
			t.Errorf("MoviesErr %v: warnings = %v, want %q", tt.err, page.Warnings, tt.want)
		}
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatRuntime(126); got != "2h 6m" {
		t.Errorf("FormatRuntime(126) = %q", got)
	}
	if got := FormatRuntime(0); got != "" {
		t.Errorf("FormatRuntime(0) = %q", got)
	}
	if got := FormatVotes(1234567); got != "1,234,567" {
		t.Errorf("FormatVotes = %q", got)
	}
	if got := FormatVotes(42); got != "42" {
		t.Errorf("FormatVotes(42) = %q", got)
	}
}
