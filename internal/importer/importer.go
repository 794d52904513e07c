// Package importer copies the catalog and sentiment artifacts into the data
// directory, skipping identical files and keeping both versions on conflict.
package importer

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SourceLayouts are the subdirectories of a source tree searched for each
// artifact, in order. The original project keeps them under static/model.
var SourceLayouts = []string{".", filepath.Join("static", "model")}

// Status is the outcome for one artifact.
type Status string

const (
	StatusCopied    Status = "copied"
	StatusIdentical Status = "identical"
	StatusConflict  Status = "conflict"
	StatusMissing   Status = "missing"
)

// Outcome records what happened to one artifact.
type Outcome struct {
	Name   string
	Source string // empty when missing
	Dest   string // conflict path for StatusConflict
	Status Status
}

// ConflictPair records a conflict found during import.
type ConflictPair struct {
	Original string // file already in the data dir
	Conflict string // where the incoming version was stored
}

// Result is returned by ImportFiles.
type Result struct {
	Outcomes  []Outcome
	Conflicts []ConflictPair
	Imported  int // files actually copied, conflicts included
	Skipped   int // identical files
	Missing   []string
}

// ImportFiles copies each named artifact from srcDir into dstDir. A missing
// source is recorded in Result.Missing rather than failing the import.
// tag names the conflict copy: main_data.csv becomes main_data.conflict-<tag>.csv.
func ImportFiles(srcDir, dstDir string, names []string, tag string) (*Result, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return nil, err
	}
	result := &Result{}
	for _, name := range names {
		src, ok := findSource(srcDir, name)
		if !ok {
			result.Missing = append(result.Missing, name)
			result.Outcomes = append(result.Outcomes, Outcome{Name: name, Status: StatusMissing})
			continue
		}
		dst := filepath.Join(dstDir, name)
		out := Outcome{Name: name, Source: src, Dest: dst, Status: StatusCopied}

		if _, err := os.Stat(dst); err == nil {
			srcMD5, err := fileMD5(src)
			if err != nil {
				return result, fmt.Errorf("md5 %s: %w", src, err)
			}
			dstMD5, err := fileMD5(dst)
			if err != nil {
				return result, fmt.Errorf("md5 %s: %w", dst, err)
			}
			if srcMD5 == dstMD5 {
				out.Status = StatusIdentical
				result.Skipped++
				result.Outcomes = append(result.Outcomes, out)
				continue
			}
			out.Dest = conflictPath(dst, tag)
			out.Status = StatusConflict
			result.Conflicts = append(result.Conflicts, ConflictPair{Original: dst, Conflict: out.Dest})
		}

		if err := copyFile(src, out.Dest); err != nil {
			return result, fmt.Errorf("copy %s → %s: %w", src, out.Dest, err)
		}
		result.Imported++
		result.Outcomes = append(result.Outcomes, out)
	}
	return result, nil
}

func findSource(srcDir, name string) (string, bool) {
	for _, layout := range SourceLayouts {
		p := filepath.Join(srcDir, layout, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// conflictPath inserts .conflict-<tag> before the final extension.
//
//	main_data.csv       → main_data.conflict-setup.csv
//	nlp_model.v2.json   → nlp_model.v2.conflict-setup.json
func conflictPath(original, tag string) string {
	if tag == "" {
		tag = "import"
	}
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(original, ext)
	return base + ".conflict-" + tag + ext
}

// fileMD5 returns the hex-encoded MD5 digest of the file at path.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// copyFile copies src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
