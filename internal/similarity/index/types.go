package index

import "github.com/kamusis/cinerec/internal/similarity"

// Version is bumped whenever the on-disk layout changes.
const Version = 1

// Default artifact names inside an index directory.
const (
	ManifestFile      = "index_manifest.json"
	DefaultTitlesFile = "titles.jsonl"
	DefaultMatrixFile = "matrix.f32"
)

// Manifest describes a persisted similarity index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	CatalogHash  string `json:"catalog_hash"`
	Movies       int    `json:"movies"`
	VocabSize    int    `json:"vocab_size"`
	MatrixFile   string `json:"matrix_file"`
	TitlesFile   string `json:"titles_file"`
}

// TitleEntry is one row of titles.jsonl.
type TitleEntry struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Index is a loaded similarity index.
type Index struct {
	Manifest Manifest
	Titles   []TitleEntry
	Matrix   *similarity.Matrix
}
