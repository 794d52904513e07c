// Package sentiment labels review text as positive, negative or neutral.
package sentiment

import (
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/metrics"
)

// Label is a sentiment class.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Classifier labels a single text.
type Classifier interface {
	Name() string
	Classify(text string) (Label, error)
}

// Review is a classified review.
type Review struct {
	Text       string `json:"text"`
	Sentiment  Label  `json:"sentiment"`
	Classifier string `json:"classifier"`
}

// ExcerptLen is how many runes of a review Excerpt keeps.
const ExcerptLen = 300

// Excerpt returns the first ExcerptLen runes of the text, with "..." appended
// when it was cut.
func (r Review) Excerpt() string {
	runes := []rune(r.Text)
	if len(runes) <= ExcerptLen {
		return r.Text
	}
	return string(runes[:ExcerptLen]) + "..."
}

// Analyze classifies every review with c. A nil c, or an error from c on a
// given review, falls back to the keyword classifier for that review.
func Analyze(c Classifier, texts []string) []Review {
	fallback := Keywords()
	out := make([]Review, 0, len(texts))
	for _, t := range texts {
		used := fallback.Name()
		label := fallback.classify(t)
		if c != nil {
			if l, err := c.Classify(t); err == nil {
				label, used = l, c.Name()
			} else {
				logging.Debug().Err(err).Str("classifier", c.Name()).Msg("classification failed, using keywords")
			}
		}
		metrics.SentimentTotal.WithLabelValues(string(label), used).Inc()
		out = append(out, Review{Text: t, Sentiment: label, Classifier: used})
	}
	return out
}

// Summary aggregates labels over a set of reviews.
type Summary struct {
	Total       int     `json:"total"`
	Positive    int     `json:"positive"`
	Negative    int     `json:"negative"`
	Neutral     int     `json:"neutral"`
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
}

// Summarize counts each label. Percentages are 0 for an empty set.
func Summarize(reviews []Review) Summary {
	s := Summary{Total: len(reviews)}
	for _, r := range reviews {
		switch r.Sentiment {
		case Positive:
			s.Positive++
		case Negative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	if s.Total > 0 {
		s.PositivePct = float64(s.Positive) / float64(s.Total) * 100
		s.NegativePct = float64(s.Negative) / float64(s.Total) * 100
	}
	return s
}
