package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a material, keyword or texture name into the form used for
// matching: NFC-normalised, trimmed and lower-cased without locale rules.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// Casers keep state between calls and must not be shared across goroutines.
	return cases.Lower(language.Und).String(norm.NFC.String(name))
}
