package similarity

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestTokenize_MatchesWordRuns(t *testing.T) {
	got := Tokenize("Sam Worthington, Zoë Saldana  Sci-Fi 3D a_b X")
	want := []string{"sam", "worthington", "zoë", "saldana", "sci", "fi", "3d", "a_b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
}

func TestFit_SortedVocabularyAndCounts(t *testing.T) {
	voc, vecs := Fit([]string{"drama drama action", "action comedy"})
	if voc.Len() != 3 {
		t.Fatalf("vocab size = %d, want 3", voc.Len())
	}
	if voc.Term(0) != "action" || voc.Term(1) != "comedy" || voc.Term(2) != "drama" {
		t.Fatalf("vocabulary not sorted: %s %s %s", voc.Term(0), voc.Term(1), voc.Term(2))
	}
	v := vecs[0]
	if !reflect.DeepEqual(v.Terms, []int32{0, 2}) || !reflect.DeepEqual(v.Counts, []float32{1, 2}) {
		t.Fatalf("unexpected vector: %+v", v)
	}
	if got := voc.Transform("comedy horror"); !reflect.DeepEqual(got.Terms, []int32{1}) {
		t.Fatalf("Transform should drop unknown tokens: %+v", got)
	}
}

func TestCosine(t *testing.T) {
	_, vecs := Fit([]string{"a1 b1", "a1 b1", "c1", ""})
	if got := Cosine(vecs[0], vecs[1]); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical docs: got %v", got)
	}
	if got := Cosine(vecs[0], vecs[2]); got != 0 {
		t.Fatalf("disjoint docs: got %v", got)
	}
	if got := Cosine(vecs[0], vecs[3]); got != 0 {
		t.Fatalf("empty doc: got %v", got)
	}
}

func TestBuildMatrix_MatchesPairwiseCosine(t *testing.T) {
	docs := []string{
		"christian bale heath ledger christopher nolan action crime",
		"christian bale michael caine christopher nolan action adventure",
		"sam worthington zoe saldana james cameron action adventure",
		"",
		"romance drama kate winslet james cameron",
		"christian bale heath ledger christopher nolan action crime",
	}
	_, vecs := Fit(docs)

	for _, workers := range []int{1, 3, 16} {
		m, err := BuildMatrix(context.Background(), vecs, workers)
		if err != nil {
			t.Fatalf("BuildMatrix(workers=%d): %v", workers, err)
		}
		if m.Len() != len(docs) {
			t.Fatalf("Len = %d", m.Len())
		}
		for i := range docs {
			if m.At(i, i) != 1 {
				t.Fatalf("diagonal (%d,%d) = %v, want 1", i, i, m.At(i, i))
			}
			for j := range docs {
				if m.At(i, j) != m.At(j, i) {
					t.Fatalf("asymmetric at (%d,%d)", i, j)
				}
				if i == j {
					continue
				}
				want := Cosine(vecs[i], vecs[j])
				if math.Abs(m.At(i, j)-want) > 1e-6 {
					t.Fatalf("workers=%d (%d,%d) = %v, want %v", workers, i, j, m.At(i, j), want)
				}
			}
		}
	}
}

func TestBuildMatrix_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, vecs := Fit([]string{"a1 b1", "b1 c1", "c1 d1"})
	if _, err := BuildMatrix(ctx, vecs, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFromPacked_SizeCheck(t *testing.T) {
	if _, err := FromPacked(3, make([]float32, 5)); !errors.Is(err, ErrPackedSize) {
		t.Fatalf("expected ErrPackedSize, got %v", err)
	}
	m, err := FromPacked(2, []float32{1, 0.5, 1})
	if err != nil {
		t.Fatal(err)
	}
	if m.At(1, 0) != 0.5 || !reflect.DeepEqual(m.Row(0), []float64{1, 0.5}) {
		t.Fatalf("unexpected values: %v", m.Row(0))
	}
}
