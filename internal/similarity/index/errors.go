package index

import "errors"

var (
	// ErrStale means the index was built from a different catalog.
	ErrStale = errors.New("similarity index does not match catalog")
	// ErrUnsupportedVersion means the index layout is newer or older than this build understands.
	ErrUnsupportedVersion = errors.New("unsupported similarity index version")
)
