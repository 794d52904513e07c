package reviews

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const page = `<!doctype html><html><body>
<div class="review"><div class="ipc-html-content-inner-div">A great film, loved it.</div></div>
<div class="review"><div class="ipc-html-content-inner-div">First line<br/>second line</div></div>
<div class="review"><div class="x ipc-html-content-inner-div y"><span>Wrapped but single.</span></div></div>
<div class="review"><div class="ipc-html-content-inner-div"></div></div>
<div class="ipc-html-content-inner"><p>not a review</p></div>
<span class="ipc-html-content-inner-div">span is ignored</span>
</body></html>`

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(page), 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A great film, loved it.", "Wrapped but single."}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("review %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParse_LimitCountsSkippedBlocks(t *testing.T) {
	// The second block has markup, so a limit of 2 leaves one review.
	got, err := Parse(strings.NewReader(page), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %q", got)
	}
}

func TestFetch(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<div class="ipc-html-content-inner-div">review %d</div>`, i)
	}
	b.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/title/tt0096895/reviews/" || r.URL.Query().Get("ref_") != "tt_ov_rt" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	s := New(srv.URL, "test-agent", 0, time.Second)
	got, err := s.Fetch(context.Background(), "tt0096895")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != DefaultMax || got[0] != "review 0" {
		t.Fatalf("got %d reviews: %q", len(got), got)
	}

	_, err = s.Fetch(context.Background(), "tt0000000")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}
