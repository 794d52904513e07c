package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ErrPackedSize is returned when packed data does not hold n*(n+1)/2 values.
var ErrPackedSize = errors.New("similarity: packed matrix size mismatch")

// Matrix is a symmetric n×n similarity matrix stored as a packed upper
// triangle of float32, row-major. The diagonal is always 1.
type Matrix struct {
	n    int
	data []float32
}

// PackedLen is the number of stored values for an n×n matrix.
func PackedLen(n int) int { return n * (n + 1) / 2 }

// NewMatrix returns a zeroed matrix with a unit diagonal.
func NewMatrix(n int) *Matrix {
	m := &Matrix{n: n, data: make([]float32, PackedLen(n))}
	for i := 0; i < n; i++ {
		m.data[m.offset(i, i)] = 1
	}
	return m
}

// FromPacked wraps packed upper-triangle values without copying.
func FromPacked(n int, data []float32) (*Matrix, error) {
	if n < 0 || len(data) != PackedLen(n) {
		return nil, fmt.Errorf("%w: got %d values for n=%d", ErrPackedSize, len(data), n)
	}
	return &Matrix{n: n, data: data}, nil
}

// Len returns n.
func (m *Matrix) Len() int { return m.n }

// Packed exposes the underlying storage for serialization.
func (m *Matrix) Packed() []float32 { return m.data }

func (m *Matrix) offset(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*m.n - i*(i-1)/2 + (j - i)
}

// At returns similarity(i, j).
func (m *Matrix) At(i, j int) float64 {
	return float64(m.data[m.offset(i, j)])
}

// Row returns similarity(i, j) for every j.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.n)
	for j := 0; j < m.n; j++ {
		out[j] = m.At(i, j)
	}
	return out
}

type posting struct {
	doc   int32
	count float32
}

// BuildMatrix computes cosine similarity for every pair of vectors.
// Rows are spread over workers goroutines; workers <= 0 means GOMAXPROCS.
func BuildMatrix(ctx context.Context, vecs []Vector, workers int) (*Matrix, error) {
	n := len(vecs)
	m := NewMatrix(n)
	if n < 2 {
		return m, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)

	norms := make([]float64, n)
	var maxTerm int32 = -1
	for i, v := range vecs {
		norms[i] = v.Norm()
		if k := len(v.Terms); k > 0 && v.Terms[k-1] > maxTerm {
			maxTerm = v.Terms[k-1]
		}
	}

	// Inverted index; each posting list is ascending by doc.
	postings := make([][]posting, maxTerm+1)
	for i, v := range vecs {
		for k, t := range v.Terms {
			postings[t] = append(postings[t], posting{doc: int32(i), count: v.Counts[k]})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			acc := make([]float64, n)
			touched := make([]int32, 0, 256)
			for i := w; i < n; i += workers {
				if (i/workers)%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if norms[i] == 0 {
					continue
				}
				v := vecs[i]
				for k, t := range v.Terms {
					pl := postings[t]
					start := sort.Search(len(pl), func(p int) bool { return int(pl[p].doc) > i })
					ci := float64(v.Counts[k])
					for _, p := range pl[start:] {
						if acc[p.doc] == 0 {
							touched = append(touched, p.doc)
						}
						acc[p.doc] += ci * float64(p.count)
					}
				}
				base := m.offset(i, i)
				for _, j := range touched {
					m.data[base+int(j)-i] = float32(acc[j] / (norms[i] * norms[j]))
					acc[j] = 0
				}
				touched = touched[:0]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
