package recommend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/similarity/index"
)

type fixedScores [][]float64

func (s fixedScores) Len() int            { return len(s) }
func (s fixedScores) At(i, j int) float64 { return s[i][j] }

func titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func tieCatalog() (*catalog.Catalog, fixedScores) {
	cat := catalog.New([]catalog.Movie{
		{Title: "alpha"}, {Title: "bravo"}, {Title: "charlie"}, {Title: "delta"}, {Title: "echo"},
	})
	s := fixedScores{
		{1, 0.5, 0.9, 0.5, 0.1},
		{0.5, 1, 0.2, 0.3, 0.3},
		{0.9, 0.2, 1, 0.4, 0.0},
		{0.5, 0.3, 0.4, 1, 0.7},
		{0.1, 0.3, 0.0, 0.7, 1},
	}
	return cat, s
}

func TestRank_OrdersByScoreThenCatalogOrder(t *testing.T) {
	cat, s := tieCatalog()
	r, err := NewRanker(cat, s, 0)
	if err != nil {
		t.Fatal(err)
	}

	recs, err := r.Recommend("ALPHA", 0)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []string{"charlie", "bravo", "delta", "echo"}
	if got := titles(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if recs[0].Score != 0.9 || recs[0].Index != 2 {
		t.Fatalf("unexpected first recommendation: %+v", recs[0])
	}
}

func TestRank_ExcludesSelfEvenWhenOthersScoreOne(t *testing.T) {
	cat := catalog.New([]catalog.Movie{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	s := fixedScores{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}
	r, _ := NewRanker(cat, s, 10)

	recs, err := r.Recommend("b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(recs); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRank_SkipsUntitledRows(t *testing.T) {
	cat := catalog.New([]catalog.Movie{{Title: "a"}, {Title: ""}, {Title: "c"}})
	s := fixedScores{
		{1, 0.9, 0.5},
		{0.9, 1, 0.1},
		{0.5, 0.1, 1},
	}
	r, _ := NewRanker(cat, s, 0)

	recs, err := r.Recommend("a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Title != "c" || recs[0].Index != 2 {
		t.Fatalf("got %+v", recs)
	}
}

func TestRank_NotFound(t *testing.T) {
	cat, s := tieCatalog()
	r, _ := NewRanker(cat, s, 0)

	_, err := r.Recommend("zulu", 0)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRank_KCapsResults(t *testing.T) {
	cat, s := tieCatalog()
	r, _ := NewRanker(cat, s, 0)

	recs, _ := r.Recommend("delta", 2)
	if got := titles(recs); !reflect.DeepEqual(got, []string{"echo", "alpha"}) {
		t.Fatalf("got %v", got)
	}
}

func TestNewRanker_SizeMismatch(t *testing.T) {
	cat, _ := tieCatalog()
	if _, err := NewRanker(cat, fixedScores{{1}}, 0); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestRank_FilterAppliedBeforeCut(t *testing.T) {
	cat := catalog.New([]catalog.Movie{
		{Title: "q", Genres: "Drama"},
		{Title: "x", Genres: "Horror"},
		{Title: "y", Genres: "Comedy Drama"},
		{Title: "z", Genres: "Comedy"},
	})
	s := fixedScores{
		{1, 0.9, 0.8, 0.1},
		{0.9, 1, 0, 0},
		{0.8, 0, 1, 0},
		{0.1, 0, 0, 1},
	}
	r, _ := NewRanker(cat, s, 0)
	f, err := CompileFilter(`item.genres.contains("Comedy")`)
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}

	recs, err := r.Rank(Query{Title: "q", K: 1, Filter: f})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(recs); !reflect.DeepEqual(got, []string{"y"}) {
		t.Fatalf("got %v", got)
	}

	f, _ = CompileFilter(`item.score > 0.5`)
	recs, _ = r.Rank(Query{Title: "q", Filter: f})
	if got := titles(recs); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRank_FilterFailuresSkipOnlyThatCandidate(t *testing.T) {
	cat, s := tieCatalog()
	r, _ := NewRanker(cat, s, 0)

	// int("bravo") fails at runtime for every title except charlie, whose
	// match short-circuits the conversion.
	f, err := CompileFilter(`item.title == "charlie" || int(item.title) > 0`)
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	recs, err := r.Rank(Query{Title: "alpha", Filter: f})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if got := titles(recs); !reflect.DeepEqual(got, []string{"charlie"}) {
		t.Fatalf("got %v", got)
	}

	f, err = CompileFilter(`item.score`)
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	recs, err = r.Rank(Query{Title: "alpha", Filter: f})
	if err != nil || len(recs) != 0 {
		t.Fatalf("non-bool filter should exclude every candidate: %v %v", titles(recs), err)
	}
}

func TestCompileFilter(t *testing.T) {
	if f, err := CompileFilter("  "); f != nil || err != nil {
		t.Fatalf("blank filter should be nil, got %v %v", f, err)
	}
	if _, err := CompileFilter("item.score >"); err == nil {
		t.Fatal("expected syntax error")
	}
}

// Property checks over a vectorized catalog.
func TestEngine_SelfExcludedDiagonalOneDeterministic(t *testing.T) {
	var movies []catalog.Movie
	genres := []string{"action", "drama", "comedy", "horror", "romance"}
	for i := 0; i < 40; i++ {
		movies = append(movies, catalog.Movie{
			Title:    fmt.Sprintf("movie %02d", i),
			Features: fmt.Sprintf("actor%d actor%d director%d %s %s", i%7, i%5, i%3, genres[i%5], genres[(i+2)%5]),
		})
	}
	movies = append(movies, catalog.Movie{Title: "blank", Features: ""})
	cat := catalog.New(movies)

	e, err := OpenCatalog(context.Background(), cat, OpenOptions{Workers: 4})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	if e.Source != "computed" {
		t.Fatalf("Source = %s", e.Source)
	}

	for i, m := range cat.Movies() {
		if s := e.Ranker.scores.At(i, i); s != 1 {
			t.Fatalf("similarity(%d,%d) = %v", i, i, s)
		}
		first, err := e.Ranker.Recommend(strings.ToUpper(m.Title), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(first) != DefaultK {
			t.Fatalf("%s: got %d recommendations", m.Title, len(first))
		}
		for _, r := range first {
			if r.Index == i {
				t.Fatalf("%s recommended itself", m.Title)
			}
		}
		again, _ := e.Ranker.Recommend(m.Title, 0)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("%s: results differ between runs", m.Title)
		}
	}
}

func TestOpen_PersistsAndReusesIndex(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "main_data.csv")
	body := "movie_title,comb\navatar,james cameron action\ntitanic,james cameron romance\nheat,michael mann action\n"
	if err := os.WriteFile(csvPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	idxDir := filepath.Join(dir, "index")

	e, err := Open(context.Background(), OpenOptions{CatalogPath: csvPath, IndexDir: idxDir, Persist: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.Source != "computed" {
		t.Fatalf("first open Source = %s", e.Source)
	}
	if _, err := index.LoadFor(idxDir, e.Catalog.Hash()); err != nil {
		t.Fatalf("index not persisted: %v", err)
	}

	e2, err := Open(context.Background(), OpenOptions{CatalogPath: csvPath, IndexDir: idxDir})
	if err != nil {
		t.Fatal(err)
	}
	if e2.Source != "index" {
		t.Fatalf("second open Source = %s", e2.Source)
	}

	res, err := e2.Recommend(Query{Title: "Avatar"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "avatar" || len(res.Recommendations) != 2 || res.Recommendations[0].Title != "titanic" {
		t.Fatalf("unexpected result: %+v", res)
	}
	last, ok := e2.Session.Last()
	if !ok || last.ID != res.ID {
		t.Fatalf("session did not remember result: %+v", last)
	}
}
