package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/recommend"
)

type moviesRequest struct {
	Query  string `validate:"max=200"`
	Prefix string `validate:"max=200"`
	Limit  int    `validate:"min=1,max=500"`
}

type recommendationRequest struct {
	Title  string `validate:"required,max=300"`
	K      int    `validate:"min=0"`
	Filter string `validate:"max=2000"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{
		"status": "ok",
		"movies": s.engine.Catalog.Len(),
		"matrix": s.engine.Source,
	}, time.Now(), nil)
}

// listMovies returns keyword matches for q, prefix matches for prefix, or the
// sorted display titles when neither is given.
func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, ok := intParam(r, "limit", 50)
	req := moviesRequest{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Prefix: strings.TrimSpace(r.URL.Query().Get("prefix")),
		Limit:  limit,
	}
	if !ok || s.validate.Struct(&req) != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "limit must be 1 to 500 and q/prefix at most 200 characters", nil)
		return
	}

	cat := s.engine.Catalog
	switch {
	case req.Query != "":
		movies := cat.Search(req.Query, req.Limit)
		respondOK(w, movies, start, countOf(len(movies)))
	case req.Prefix != "":
		titles := cat.Suggest(req.Prefix, req.Limit)
		respondOK(w, titles, start, countOf(len(titles)))
	default:
		titles := cat.Titles()
		if len(titles) > req.Limit {
			titles = titles[:req.Limit]
		}
		respondOK(w, titles, start, countOf(len(titles)))
	}
}

func (s *Server) catalogInfo(w http.ResponseWriter, r *http.Request) {
	sample, ok := intParam(r, "sample", 5)
	if !ok || sample < 0 || sample > 100 {
		respondError(w, http.StatusBadRequest, CodeValidation, "sample must be 0 to 100", nil)
		return
	}
	respondOK(w, s.engine.Catalog.Info(sample), time.Now(), nil)
}

// parseQuery validates the shared title/k/filter parameters. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) parseQuery(w http.ResponseWriter, r *http.Request) (recommend.Query, bool) {
	k, ok := intParam(r, "k", 0)
	req := recommendationRequest{
		Title:  strings.TrimSpace(r.URL.Query().Get("title")),
		K:      k,
		Filter: strings.TrimSpace(r.URL.Query().Get("filter")),
	}
	if !ok || s.validate.Struct(&req) != nil || req.K > s.opts.MaxK {
		respondError(w, http.StatusBadRequest, CodeValidation, "title is required and k must be a non-negative integer", nil)
		return recommend.Query{}, false
	}
	f, err := recommend.CompileFilter(req.Filter)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeBadFilter, err.Error(), nil)
		return recommend.Query{}, false
	}
	return recommend.Query{Title: req.Title, K: req.K, Filter: f}, true
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Recommend(q)
	if recommend.IsNotFound(err) {
		respondError(w, http.StatusNotFound, CodeNotFound, recommend.NotFoundMessage, nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "recommendation failed", err)
		return
	}
	respondOK(w, withDisplayTitles(res), start, countOf(len(res.Recommendations)))
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.pages == nil {
		respondError(w, http.StatusServiceUnavailable, CodeInternal, "movie pages are not enabled", nil)
		return
	}
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	page, err := s.pages.Page(r.Context(), q)
	if recommend.IsNotFound(err) {
		respondError(w, http.StatusNotFound, CodeNotFound, recommend.NotFoundMessage, nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "page build failed", err)
		return
	}
	respondOK(w, page, start, nil)
}

func (s *Server) lastResult(w http.ResponseWriter, r *http.Request) {
	res, ok := s.engine.Session.Last()
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "no recommendations computed yet", nil)
		return
	}
	respondOK(w, withDisplayTitles(res), time.Now(), countOf(len(res.Recommendations)))
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	s.engine.Session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type displayRecommendation struct {
	recommend.Recommendation
	Display string `json:"display_title"`
}

type displayResult struct {
	recommend.Result
	Recommendations []displayRecommendation `json:"recommendations"`
}

func withDisplayTitles(res recommend.Result) displayResult {
	out := displayResult{Result: res, Recommendations: make([]displayRecommendation, len(res.Recommendations))}
	for i, rec := range res.Recommendations {
		out.Recommendations[i] = displayRecommendation{Recommendation: rec, Display: catalog.DisplayTitle(rec.Title)}
	}
	return out
}
