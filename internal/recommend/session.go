package recommend

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is one computed recommendation set.
type Result struct {
	ID              string           `json:"id"`
	Query           string           `json:"query"`
	Title           string           `json:"title"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Session keeps the last computed recommendation set. It is safe for concurrent use.
type Session struct {
	mu   sync.RWMutex
	last *Result
}

// Remember stores recs as the last result and returns it.
func (s *Session) Remember(query, title string, recs []Recommendation) Result {
	r := Result{
		ID:              uuid.NewString(),
		Query:           query,
		Title:           title,
		Recommendations: append([]Recommendation(nil), recs...),
		CreatedAt:       time.Now().UTC(),
	}
	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
	return r
}

// Last returns the most recent result, if any.
func (s *Session) Last() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Result{}, false
	}
	r := *s.last
	r.Recommendations = append([]Recommendation(nil), s.last.Recommendations...)
	return r, true
}

// Clear forgets the last result.
func (s *Session) Clear() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}
