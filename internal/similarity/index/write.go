package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/kamusis/cinerec/internal/similarity"
)

// Write writes index artifacts to dir.
func Write(dir string, manifest Manifest, titles []TitleEntry, m *similarity.Matrix) error {
	if len(titles) == 0 {
		return fmt.Errorf("no titles to write")
	}
	if m == nil || m.Len() != len(titles) {
		return fmt.Errorf("matrix size does not match %d titles", len(titles))
	}
	manifest.IndexVersion = Version
	manifest.Movies = len(titles)
	if manifest.MatrixFile == "" {
		manifest.MatrixFile = DefaultMatrixFile
	}
	if manifest.TitlesFile == "" {
		manifest.TitlesFile = DefaultTitlesFile
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	if err := writeTitles(filepath.Join(dir, manifest.TitlesFile), titles); err != nil {
		return err
	}

	mf, err := os.Create(filepath.Join(dir, manifest.MatrixFile))
	if err != nil {
		return fmt.Errorf("cannot create matrix file: %w", err)
	}
	bw := bufio.NewWriterSize(mf, 1<<20)
	if err := binary.Write(bw, binary.LittleEndian, m.Packed()); err != nil {
		_ = mf.Close()
		return fmt.Errorf("cannot write matrix: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = mf.Close()
		return fmt.Errorf("cannot write matrix: %w", err)
	}
	return mf.Close()
}

func writeTitles(path string, titles []TitleEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create titles file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, t := range titles {
		line, err := json.Marshal(t)
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = f.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
