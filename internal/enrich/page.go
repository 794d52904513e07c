// Package enrich assembles a movie page from recommendations, TMDb details
// and IMDb review sentiment.
package enrich

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kamusis/cinerec/internal/sentiment"
)

// MovieInfo is the TMDb part of a page.
type MovieInfo struct {
	TMDbID         int64    `json:"tmdb_id"`
	IMDbID         string   `json:"imdb_id,omitempty"`
	Title          string   `json:"title"`
	Overview       string   `json:"overview,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	RuntimeMinutes int      `json:"runtime_minutes,omitempty"`
	Runtime        string   `json:"runtime,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	VoteCount      int64    `json:"vote_count,omitempty"`
	Votes          string   `json:"votes,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
}

// CastInfo is one billed cast member.
type CastInfo struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// RecommendedMovie is a recommendation with display data. Only the first
// PosterCount entries carry a poster.
type RecommendedMovie struct {
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	Display   string  `json:"display_title"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url,omitempty"`
}

// Page is everything shown for one selected movie.
type Page struct {
	ResultID        string             `json:"result_id"`
	Query           string             `json:"query"`
	Title           string             `json:"title"`
	Movie           *MovieInfo         `json:"movie,omitempty"`
	Cast            []CastInfo         `json:"cast,omitempty"`
	Reviews         []sentiment.Review `json:"reviews,omitempty"`
	Sentiment       *sentiment.Summary `json:"sentiment,omitempty"`
	Recommendations []RecommendedMovie `json:"recommendations"`
	Warnings        []string           `json:"warnings,omitempty"`
}

func (p *Page) warn(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

// FormatRuntime renders minutes as "2h 6m". Zero or negative yields "".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatVotes groups thousands: 7500 becomes "7,500".
func FormatVotes(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
