// Package catalog loads the movie catalog CSV and answers title lookups.
package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// Required CSV columns.
const (
	ColumnTitle    = "movie_title"
	ColumnFeatures = "comb"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("catalog: missing required column")

// Movie is one catalog row.
type Movie struct {
	Index    int      `json:"index"`
	Title    string   `json:"title"`
	Features string   `json:"features"`
	Director string   `json:"director,omitempty"`
	Actors   []string `json:"actors,omitempty"`
	Genres   string   `json:"genres,omitempty"`
}

// Catalog is an immutable, ordered set of movies.
type Catalog struct {
	movies []Movie
	byKey  map[string]int
	hash   string

	titlesOnce sync.Once
	titles     []string
}

// Info summarizes a catalog for display.
type Info struct {
	Total  int      `json:"total"`
	Sample []string `json:"sample"`
}

// Load reads a catalog CSV from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse reads a catalog CSV with a header row. Rows keep file order, so a
// movie's Index is its 0-based data row. Rows with an empty title are kept
// for alignment but are never looked up, listed or recommended.
func Parse(r io.Reader) (*Catalog, error) {
	h := sha256.New()
	cr := csv.NewReader(io.TeeReader(r, h))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range []string{ColumnTitle, ColumnFeatures} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var movies []Movie
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		m := Movie{
			Title:    field(row, ColumnTitle),
			Features: field(row, ColumnFeatures),
			Director: field(row, "director_name"),
			Genres:   field(row, "genres"),
		}
		for _, col := range []string{"actor_1_name", "actor_2_name", "actor_3_name"} {
			if a := field(row, col); a != "" {
				m.Actors = append(m.Actors, a)
			}
		}
		movies = append(movies, m)
	}
	c := New(movies)
	c.hash = hex.EncodeToString(h.Sum(nil))
	return c, nil
}

// New builds a catalog from movies, renumbering Index to the slice position.
func New(movies []Movie) *Catalog {
	c := &Catalog{
		movies: make([]Movie, len(movies)),
		byKey:  make(map[string]int, len(movies)),
	}
	h := sha256.New()
	for i, m := range movies {
		m.Index = i
		c.movies[i] = m
		k := Key(m.Title)
		if _, dup := c.byKey[k]; !dup && m.Title != "" {
			c.byKey[k] = i
		}
		fmt.Fprintf(h, "%s\x00%s\n", m.Title, m.Features)
	}
	c.hash = hex.EncodeToString(h.Sum(nil))
	return c
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.movies) }

// Movie returns the movie at catalog position i.
func (c *Catalog) Movie(i int) Movie { return c.movies[i] }

// Movies returns all movies in catalog order. Callers must not modify the slice.
func (c *Catalog) Movies() []Movie { return c.movies }

// Hash identifies the catalog contents; similarity indexes are keyed by it.
func (c *Catalog) Hash() string { return c.hash }

// Features returns the feature text of every movie in catalog order.
func (c *Catalog) Features() []string {
	out := make([]string, len(c.movies))
	for i, m := range c.movies {
		out[i] = m.Features
	}
	return out
}

// Lookup finds a movie by case-insensitive exact title. The first row wins
// when titles repeat.
func (c *Catalog) Lookup(title string) (Movie, bool) {
	i, ok := c.byKey[Key(title)]
	if !ok {
		return Movie{}, false
	}
	return c.movies[i], true
}

// Titles returns every display title, sorted.
func (c *Catalog) Titles() []string {
	c.titlesOnce.Do(func() {
		c.titles = make([]string, 0, len(c.movies))
		for _, m := range c.movies {
			if m.Title != "" {
				c.titles = append(c.titles, DisplayTitle(m.Title))
			}
		}
		sort.Strings(c.titles)
	})
	return c.titles
}

// Suggest returns sorted display titles whose title starts with prefix.
func (c *Catalog) Suggest(prefix string, limit int) []string {
	p := Key(strings.TrimSpace(prefix))
	var out []string
	for _, t := range c.Titles() {
		if strings.HasPrefix(Key(t), p) {
			out = append(out, t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// Search returns movies whose title contains every query token, in catalog order.
func (c *Catalog) Search(query string, limit int) []Movie {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Movie{}
	}

	out := []Movie{}
	for _, m := range c.movies {
		blob := Key(m.Title)
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(blob, tok) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Info reports the number of titled movies and the first n display titles.
func (c *Catalog) Info(n int) Info {
	n = max(0, min(n, len(c.movies)))
	info := Info{Sample: make([]string, 0, n)}
	for _, m := range c.movies {
		if m.Title == "" {
			continue
		}
		info.Total++
		if len(info.Sample) < n {
			info.Sample = append(info.Sample, DisplayTitle(m.Title))
		}
	}
	return info
}

func tokenize(q string) []string {
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, Key(p))
	}
	return out
}
