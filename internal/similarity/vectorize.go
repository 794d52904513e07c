// Package similarity turns feature text into bag-of-words vectors and
// computes the pairwise cosine similarity matrix over a catalog.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vector is a sparse term-count vector. Terms are ascending vocabulary ids.
type Vector struct {
	Terms  []int32
	Counts []float32
}

// Norm returns the L2 norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, c := range v.Counts {
		sum += float64(c) * float64(c)
	}
	return math.Sqrt(sum)
}

// Vocabulary maps tokens to column ids in sorted token order.
type Vocabulary struct {
	terms []string
	index map[string]int32
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Term returns the token for column id.
func (v *Vocabulary) Term(id int) string { return v.terms[id] }

// Tokenize lowercases text and returns every maximal run of letters, digits
// or underscores that is at least two runes long.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var out []string
	start, runes := -1, 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			out = append(out, text[start:end])
		}
		start, runes = -1, 0
	}
	for i, r := range text {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return out
}

// Fit builds the vocabulary of docs and returns one count vector per doc.
func Fit(docs []string) (*Vocabulary, []Vector) {
	tokenized := make([][]string, len(docs))
	seen := make(map[string]struct{})
	for i, d := range docs {
		toks := Tokenize(d)
		tokenized[i] = toks
		for _, t := range toks {
			seen[t] = struct{}{}
		}
	}

	voc := &Vocabulary{
		terms: make([]string, 0, len(seen)),
		index: make(map[string]int32, len(seen)),
	}
	for t := range seen {
		voc.terms = append(voc.terms, t)
	}
	sort.Strings(voc.terms)
	for i, t := range voc.terms {
		voc.index[t] = int32(i)
	}

	vecs := make([]Vector, len(docs))
	for i, toks := range tokenized {
		vecs[i] = voc.vectorize(toks)
	}
	return voc, vecs
}

// Transform vectorizes doc against a fitted vocabulary; unknown tokens are dropped.
func (v *Vocabulary) Transform(doc string) Vector {
	return v.vectorize(Tokenize(doc))
}

func (v *Vocabulary) vectorize(toks []string) Vector {
	counts := make(map[int32]float32, len(toks))
	for _, t := range toks {
		if id, ok := v.index[t]; ok {
			counts[id]++
		}
	}
	vec := Vector{
		Terms:  make([]int32, 0, len(counts)),
		Counts: make([]float32, 0, len(counts)),
	}
	for id := range counts {
		vec.Terms = append(vec.Terms, id)
	}
	sort.Slice(vec.Terms, func(i, j int) bool { return vec.Terms[i] < vec.Terms[j] })
	for _, id := range vec.Terms {
		vec.Counts = append(vec.Counts, counts[id])
	}
	return vec
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty.
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	i, j := 0, 0
	for i < len(a.Terms) && j < len(b.Terms) {
		switch {
		case a.Terms[i] == b.Terms[j]:
			dot += float64(a.Counts[i]) * float64(b.Counts[j])
			i++
			j++
		case a.Terms[i] < b.Terms[j]:
			i++
		default:
			j++
		}
	}
	return dot / (na * nb)
}
