package tmdb

// SearchResult is one hit from /search/movie.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Genre is a TMDb genre.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie is the /movie/{id} payload, trimmed to the fields cinerec shows.
type Movie struct {
	ID          int64   `json:"id"`
	IMDbID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	Tagline     string  `json:"tagline"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
	Genres      []Genre `json:"genres"`
	PosterPath  string  `json:"poster_path"`
	Status      string  `json:"status"`
}

// GenreNames returns the genre names in TMDb order.
func (m *Movie) GenreNames() []string {
	out := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		out = append(out, g.Name)
	}
	return out
}

// CastMember is one billed actor.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// Credits is the /movie/{id}/credits payload.
type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
}

// Top returns the first n billed cast members.
func (c *Credits) Top(n int) []CastMember {
	if c == nil {
		return nil
	}
	return c.Cast[:max(0, min(n, len(c.Cast)))]
}
