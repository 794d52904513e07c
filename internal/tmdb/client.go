// Package tmdb is a small client for the TMDb v3 REST API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/kamusis/cinerec/internal/cache"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/metrics"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	// Image sizes used by the movie page.
	PosterSize  = "w500"
	ThumbSize   = "w200"
	ProfileSize = "w200"

	maxBody = 4 << 20
)

// Options configures New. Zero values pick the defaults.
type Options struct {
	BaseURL           string
	ImageBaseURL      string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// Cache stores successful response bodies; nil disables caching.
	Cache    cache.Store
	CacheTTL time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to TMDb. It is safe for concurrent use.
type Client struct {
	baseURL  string
	imageURL string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	cache    cache.Store
	cacheTTL time.Duration
}

// New builds a Client. The API key is not validated here; see ValidateAPIKey.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	img := strings.TrimRight(opts.ImageBaseURL, "/")
	if img == "" {
		img = DefaultImageBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:  base,
		imageURL: img,
		apiKey:   opts.APIKey,
		http:     hc,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  newBreaker("tmdb-api"),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

// SearchMovie runs a title search and returns the hits in TMDb order.
func (c *Client) SearchMovie(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := c.get(ctx, "search", "/search/movie", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse TMDb search response: %w", err)
	}
	return resp.Results, nil
}

// Details fetches /movie/{id}.
func (c *Client) Details(ctx context.Context, id int64) (*Movie, error) {
	body, err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, err
	}
	var m Movie
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse TMDb details for %d: %w", id, err)
	}
	return &m, nil
}

// Credits fetches /movie/{id}/credits.
func (c *Client) Credits(ctx context.Context, id int64) (*Credits, error) {
	body, err := c.get(ctx, "credits", "/movie/"+strconv.FormatInt(id, 10)+"/credits", nil)
	if err != nil {
		return nil, err
	}
	var cr Credits
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("parse TMDb credits for %d: %w", id, err)
	}
	return &cr, nil
}

// Lookup resolves a title to its details and credits using the first search
// hit. A credits failure is logged and yields empty credits.
func (c *Client) Lookup(ctx context.Context, title string) (*Movie, *Credits, error) {
	hits, err := c.SearchMovie(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, fmt.Errorf("%q: %w", title, ErrNoMatch)
	}
	m, err := c.Details(ctx, hits[0].ID)
	if err != nil {
		return nil, nil, err
	}
	cr, err := c.Credits(ctx, hits[0].ID)
	if err != nil {
		logging.Debug().Err(err).Int64("tmdb_id", hits[0].ID).Msg("credits unavailable")
		cr = &Credits{ID: hits[0].ID}
	}
	return m, cr, nil
}

// Test checks the configured key with a known lookup.
func (c *Client) Test(ctx context.Context) error {
	if err := ValidateAPIKey(c.apiKey); err != nil {
		return err
	}
	_, _, err := c.Lookup(ctx, "Batman")
	return err
}

// ImageURL joins an image path onto the image base at the given size.
// It returns "" when the path is empty.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageURL + "/" + size + path
}

// PosterURL is ImageURL at PosterSize.
func (c *Client) PosterURL(path string) string { return c.ImageURL(path, PosterSize) }

// ProfileURL is ImageURL at ProfileSize.
func (c *Client) ProfileURL(path string) string { return c.ImageURL(path, ProfileSize) }

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	cacheKey := "tmdb:" + path
	if len(params) > 0 {
		cacheKey += "?" + params.Encode()
	}
	if c.cache != nil {
		if body, err := c.cache.Get(ctx, cacheKey); err == nil {
			metrics.TMDbRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + q.Encode()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, reqURL)
	})
	metrics.TMDbRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.TMDbRequestsTotal.WithLabelValues(endpoint, resultLabel(err)).Inc()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("TMDb temporarily unavailable: %w", err)
		}
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			logging.Debug().Err(err).Str("key", cacheKey).Msg("cache set failed")
		}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("TMDb %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read TMDb %s response: %w", endpoint, err)
	}
	return body, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "error"
	}
}
