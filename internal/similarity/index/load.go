package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/kamusis/cinerec/internal/similarity"
)

// Load reads an index from dir containing manifest + titles + matrix.
func Load(dir string) (*Index, error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.IndexVersion != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.IndexVersion)
	}
	if m.Movies <= 0 {
		return nil, fmt.Errorf("invalid movie count in manifest: %d", m.Movies)
	}
	if m.MatrixFile == "" {
		m.MatrixFile = DefaultMatrixFile
	}
	if m.TitlesFile == "" {
		m.TitlesFile = DefaultTitlesFile
	}

	titles, err := loadTitles(filepath.Join(dir, m.TitlesFile))
	if err != nil {
		return nil, err
	}
	if len(titles) != m.Movies {
		return nil, fmt.Errorf("titles count mismatch: got %d want %d", len(titles), m.Movies)
	}
	mat, err := loadMatrix(filepath.Join(dir, m.MatrixFile), m.Movies)
	if err != nil {
		return nil, err
	}

	return &Index{Manifest: m, Titles: titles, Matrix: mat}, nil
}

// LoadFor loads the index in dir and checks that it was built from a catalog with hash.
func LoadFor(dir, hash string) (*Index, error) {
	idx, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if idx.Manifest.CatalogHash != hash {
		return nil, fmt.Errorf("%w (index %s)", ErrStale, dir)
	}
	return idx, nil
}

func loadTitles(path string) ([]TitleEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open titles file %s: %w", path, err)
	}
	defer f.Close()

	var out []TitleEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e TitleEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid titles JSONL %s: %w", path, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read titles file %s: %w", path, err)
	}
	return out, nil
}

func loadMatrix(path string, n int) (*similarity.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open matrix file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat matrix file %s: %w", path, err)
	}
	expected := int64(similarity.PackedLen(n)) * 4
	if st.Size() != expected {
		return nil, fmt.Errorf("matrix file size mismatch: got %d want %d (movies=%d)", st.Size(), expected, n)
	}

	data := make([]float32, similarity.PackedLen(n))
	r := bufio.NewReaderSize(io.LimitReader(f, expected), 1<<20)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("cannot read matrix from %s: %w", path, err)
	}
	return similarity.FromPacked(n, data)
}
