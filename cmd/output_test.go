package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/kamusis/cinerec/internal/recommend"
)

// captureOutput redirects the print helpers for the duration of the test.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return out, errOut
}

func TestStatusLines(t *testing.T) {
	out, errOut := captureOutput(t)

	printOK("", "catalog loaded")
	printWarn("tmdb", "key not set")
	printErr("index", "corrupt")

	want := "  ✓  catalog loaded\n  ⚠  [tmdb] key not set\n"
	if out.String() != want {
		t.Fatalf("stdout = %q, want %q", out.String(), want)
	}
	if errOut.String() != "  ✗  [index] corrupt\n" {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestVersionText(t *testing.T) {
	prev := commit
	commit = "abc123"
	t.Cleanup(func() { commit = prev })

	got := versionText()
	if !strings.HasPrefix(got, "cinerec "+version+"\n") {
		t.Fatalf("unexpected header: %q", got)
	}
	if !strings.Contains(got, "commit:  abc123") || !strings.Contains(got, "built:   n/a") {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(fmt.Errorf("lookup: %w", recommend.ErrNotFound))
	if err == nil || err.Error() != recommend.NotFoundMessage {
		t.Fatalf("got %v", err)
	}
	other := fmt.Errorf("disk full")
	if notFoundOr(other) != other {
		t.Fatal("non-NotFound errors must pass through")
	}
}

func TestPrintJSON(t *testing.T) {
	out, _ := captureOutput(t)
	if err := printJSON(map[string]int{"k": 10}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "{\n  \"k\": 10\n}\n" {
		t.Fatalf("printJSON = %q", out.String())
	}
}
