package sentiment

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/similarity"
)

// Model types understood by LoadModel.
const (
	TypeMultinomialNB      = "multinomial_nb"
	TypeLogisticRegression = "logistic_regression"
)

var errEmptyText = errors.New("no known terms in text")

// Vectorizer is an exported TF-IDF vectorizer.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Norm        string         `json:"norm"`
	SublinearTF bool           `json:"sublinear_tf"`
	// NgramRange is [min, max]; empty means unigrams.
	NgramRange []int `json:"ngram_range,omitempty"`
}

// Model is an exported linear text classifier.
type Model struct {
	Type           string      `json:"type"`
	Classes        []int       `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior,omitempty"`
	FeatureLogProb [][]float64 `json:"feature_log_prob,omitempty"`
	Coef           [][]float64 `json:"coef,omitempty"`
	Intercept      []float64   `json:"intercept,omitempty"`
}

// ModelClassifier applies a Vectorizer and a Model.
type ModelClassifier struct {
	vec   *Vectorizer
	model *Model
}

// LoadModel reads the vectorizer and model artifacts.
func LoadModel(vectorizerPath, modelPath string) (*ModelClassifier, error) {
	var vec Vectorizer
	if err := readJSON(vectorizerPath, &vec); err != nil {
		return nil, fmt.Errorf("load vectorizer: %w", err)
	}
	var m Model
	if err := readJSON(modelPath, &m); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return NewModelClassifier(&vec, &m)
}

// NewModelClassifier checks that vec and m agree on dimensions.
func NewModelClassifier(vec *Vectorizer, m *Model) (*ModelClassifier, error) {
	n := len(vec.IDF)
	if n == 0 || len(vec.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer is empty")
	}
	for term, col := range vec.Vocabulary {
		if col < 0 || col >= n {
			return nil, fmt.Errorf("vocabulary term %q has column %d outside idf (%d)", term, col, n)
		}
	}
	switch vec.Norm {
	case "", "l2", "l1", "none":
	default:
		return nil, fmt.Errorf("unsupported norm %q", vec.Norm)
	}
	if len(m.Classes) < 2 {
		return nil, fmt.Errorf("model needs at least two classes, has %d", len(m.Classes))
	}

	switch m.Type {
	case TypeMultinomialNB:
		if len(m.ClassLogPrior) != len(m.Classes) || len(m.FeatureLogProb) != len(m.Classes) {
			return nil, fmt.Errorf("%s: class arrays do not match %d classes", m.Type, len(m.Classes))
		}
		for i, row := range m.FeatureLogProb {
			if len(row) != n {
				return nil, fmt.Errorf("%s: feature_log_prob[%d] has %d columns, want %d", m.Type, i, len(row), n)
			}
		}
	case TypeLogisticRegression:
		rows := len(m.Classes)
		if rows == 2 {
			rows = 1
		}
		if len(m.Coef) != rows || len(m.Intercept) != rows {
			return nil, fmt.Errorf("%s: want %d coef rows and intercepts", m.Type, rows)
		}
		for i, row := range m.Coef {
			if len(row) != n {
				return nil, fmt.Errorf("%s: coef[%d] has %d columns, want %d", m.Type, i, len(row), n)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported model type %q", m.Type)
	}
	return &ModelClassifier{vec: vec, model: m}, nil
}

// Load returns the model classifier, or the keyword classifier with a
// warning when the artifacts are missing or invalid.
func Load(vectorizerPath, modelPath string) Classifier {
	mc, err := LoadModel(vectorizerPath, modelPath)
	if err != nil {
		logging.Warn().Err(err).Msg("sentiment model unavailable, using keyword analysis")
		return Keywords()
	}
	return mc
}

func (c *ModelClassifier) Name() string { return c.model.Type }

// Classify predicts a class; class 1 is Positive and anything else Negative.
func (c *ModelClassifier) Classify(text string) (Label, error) {
	x := c.vec.transform(text)
	if len(x) == 0 {
		return "", errEmptyText
	}
	if c.model.predict(x) == 1 {
		return Positive, nil
	}
	return Negative, nil
}

// transform returns the sparse TF-IDF row for text.
func (v *Vectorizer) transform(text string) map[int]float64 {
	toks := similarity.Tokenize(text)
	lo, hi := 1, 1
	if len(v.NgramRange) == 2 {
		lo, hi = max(1, v.NgramRange[0]), max(1, v.NgramRange[1])
	}

	tf := make(map[int]float64)
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(toks); i++ {
			term := toks[i]
			if n > 1 {
				term = strings.Join(toks[i:i+n], " ")
			}
			if col, ok := v.Vocabulary[term]; ok {
				tf[col]++
			}
		}
	}

	var l1, l2 float64
	for col, f := range tf {
		if v.SublinearTF {
			f = 1 + math.Log(f)
		}
		f *= v.IDF[col]
		tf[col] = f
		l1 += math.Abs(f)
		l2 += f * f
	}
	norm := 1.0
	switch v.Norm {
	case "", "l2":
		norm = math.Sqrt(l2)
	case "l1":
		norm = l1
	}
	if norm > 0 && norm != 1 {
		for col := range tf {
			tf[col] /= norm
		}
	}
	return tf
}

func (m *Model) predict(x map[int]float64) int {
	switch m.Type {
	case TypeMultinomialNB:
		best, bestScore := 0, math.Inf(-1)
		for ci := range m.Classes {
			s := m.ClassLogPrior[ci]
			for col, v := range x {
				s += v * m.FeatureLogProb[ci][col]
			}
			if s > bestScore {
				best, bestScore = ci, s
			}
		}
		return m.Classes[best]
	default:
		if len(m.Coef) == 1 {
			if dot(m.Coef[0], x)+m.Intercept[0] > 0 {
				return m.Classes[1]
			}
			return m.Classes[0]
		}
		best, bestScore := 0, math.Inf(-1)
		for ci, row := range m.Coef {
			if s := dot(row, x) + m.Intercept[ci]; s > bestScore {
				best, bestScore = ci, s
			}
		}
		return m.Classes[best]
	}
}

func dot(w []float64, x map[int]float64) float64 {
	var s float64
	for col, v := range x {
		s += w[col] * v
	}
	return s
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
