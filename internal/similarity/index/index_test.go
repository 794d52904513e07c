package index

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kamusis/cinerec/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return catalog.New([]catalog.Movie{
		{Title: "avatar", Features: "sam worthington james cameron action adventure"},
		{Title: "titanic", Features: "kate winslet james cameron romance drama"},
		{Title: "the dark knight", Features: "christian bale christopher nolan action crime"},
	})
}

func TestBuildLoad_RoundTrip(t *testing.T) {
	cat := testCatalog(t)
	dir := filepath.Join(t.TempDir(), "index")

	built, reused, err := Build(context.Background(), cat, BuildOptions{OutDir: dir, Workers: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if reused {
		t.Fatal("first build should not reuse")
	}

	idx, err := LoadFor(dir, cat.Hash())
	if err != nil {
		t.Fatalf("LoadFor: %v", err)
	}
	if idx.Manifest.Movies != 3 || len(idx.Titles) != 3 || idx.Titles[2].Title != "the dark knight" {
		t.Fatalf("unexpected index: %+v", idx.Manifest)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if idx.Matrix.At(i, j) != built.Matrix.At(i, j) {
				t.Fatalf("(%d,%d) = %v, want %v", i, j, idx.Matrix.At(i, j), built.Matrix.At(i, j))
			}
		}
	}
}

func TestBuild_ReusesMatchingIndex(t *testing.T) {
	cat := testCatalog(t)
	dir := filepath.Join(t.TempDir(), "index")
	if _, _, err := Build(context.Background(), cat, BuildOptions{OutDir: dir}); err != nil {
		t.Fatal(err)
	}

	_, reused, err := Build(context.Background(), cat, BuildOptions{ExistingDir: dir})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reused {
		t.Fatal("expected reuse of matching index")
	}

	out := filepath.Join(t.TempDir(), "fresh")
	_, reused, err = Build(context.Background(), cat, BuildOptions{ExistingDir: dir, OutDir: out, Force: true})
	if err != nil || reused {
		t.Fatalf("forced build: reused=%v err=%v", reused, err)
	}
}

func TestLoadFor_StaleHash(t *testing.T) {
	cat := testCatalog(t)
	dir := filepath.Join(t.TempDir(), "index")
	if _, _, err := Build(context.Background(), cat, BuildOptions{OutDir: dir}); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFor(dir, "other"); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
}

func TestLoad_MatrixSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{IndexVersion: Version, Movies: 2, CatalogHash: "h"}
	mb, _ := json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644); err != nil {
		t.Fatal(err)
	}
	lines := `{"index":0,"title":"a"}` + "\n" + `{"index":1,"title":"b"}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultTitlesFile), []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, DefaultMatrixFile))
	if err != nil {
		t.Fatal(err)
	}
	// 2 movies need 3 packed values; write 2.
	if err := binary.Write(f, binary.LittleEndian, []float32{1, 1}); err != nil {
		_ = f.Close()
		t.Fatal(err)
	}
	_ = f.Close()

	_, err = Load(dir)
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Fatalf("expected size mismatch error, got %v", err)
	}
}

func TestAtomicSwap_ReplacesDestination(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "new")
	dst := filepath.Join(base, "index")
	for _, d := range []string{src, dst} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "marker"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AtomicSwap(src, dst); err != nil {
		t.Fatalf("AtomicSwap: %v", err)
	}
	if b, err := os.ReadFile(filepath.Join(dst, "marker")); err != nil || string(b) != "new" {
		t.Fatalf("destination not replaced: %q %v", b, err)
	}
	if _, err := os.Stat(dst + ".bak"); !os.IsNotExist(err) {
		t.Fatal("backup should be removed")
	}
}

func TestLock_Exclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	release, err := Lock(dir, time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer release()

	if _, err := Lock(dir, 300*time.Millisecond); err == nil {
		t.Fatal("second lock should time out")
	}
}

func TestInstall_WritesLoadableIndex(t *testing.T) {
	cat := testCatalog(t)
	idx, err := Compute(context.Background(), cat, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "nested", "index")
	if err := Install(idx, dir); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := LoadFor(dir, cat.Hash()); err != nil {
		t.Fatalf("LoadFor after Install: %v", err)
	}
}
