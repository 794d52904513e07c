// Package reviews fetches user reviews from IMDb title pages.
package reviews

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kamusis/cinerec/internal/metrics"
)

const (
	DefaultBaseURL   = "https://www.imdb.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.83 Safari/537.36"
	DefaultMax       = 10

	reviewClass = "ipc-html-content-inner-div"
	maxPage     = 8 << 20
)

// StatusError reports a non-200 review page.
type StatusError struct {
	IMDbID string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("IMDb reviews for %s: HTTP %d", e.IMDbID, e.Code)
}

// Scraper downloads and parses review pages.
type Scraper struct {
	BaseURL   string
	UserAgent string
	// Max caps how many review blocks are inspected per page.
	Max    int
	Client *http.Client
}

// New returns a Scraper with defaults filled in.
func New(baseURL, userAgent string, limit int, timeout time.Duration) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if limit <= 0 {
		limit = DefaultMax
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Max:       limit,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the plain-text reviews on the first page for imdbID.
func (s *Scraper) Fetch(ctx context.Context, imdbID string) ([]string, error) {
	if imdbID == "" {
		return nil, fmt.Errorf("empty IMDb id")
	}
	u := fmt.Sprintf("%s/title/%s/reviews/?ref_=tt_ov_rt", s.BaseURL, imdbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.Client.Do(req)
	if err != nil {
		metrics.ReviewsScrapedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch reviews for %s: %w", imdbID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.ReviewsScrapedTotal.WithLabelValues("status").Inc()
		return nil, &StatusError{IMDbID: imdbID, Code: resp.StatusCode}
	}

	out, err := Parse(io.LimitReader(resp.Body, maxPage), s.Max)
	if err != nil {
		metrics.ReviewsScrapedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse reviews for %s: %w", imdbID, err)
	}
	metrics.ReviewsScrapedTotal.WithLabelValues("ok").Inc()
	return out, nil
}

// Parse extracts review texts from a review page. Only the first limit review
// blocks are considered, and a block counts only if it holds a single string,
// so reviews with markup inside (line breaks, spoiler tags) are skipped.
func Parse(r io.Reader, limit int) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var blocks []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, reviewClass) {
			blocks = append(blocks, n)
			if limit > 0 && len(blocks) >= limit {
				return false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if text, ok := soleString(b); ok && text != "" {
			out = append(out, text)
		}
	}
	return out, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// soleString follows single-child chains down to a text node.
func soleString(n *html.Node) (string, bool) {
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		switch c.Type {
		case html.TextNode:
			return c.Data, true
		case html.ElementNode:
			n = c
		default:
			return "", false
		}
	}
}
