package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key is the case-folded form of a title used for matching.
// A cases.Caser is stateful, so one is created per call.
func Key(title string) string {
	return cases.Fold().String(strings.TrimSpace(title))
}

// DisplayTitle title-cases a catalog title for display ("the dark knight" becomes "The Dark Knight").
func DisplayTitle(title string) string {
	return cases.Title(language.English).String(title)
}
