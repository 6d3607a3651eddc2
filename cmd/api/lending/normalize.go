package lending

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

/* Reduces a search string to lowercase ASCII letters and digits, folding accents first ("Café-Noir 2" -> "cafenoir2"). */
func NormalizeSearch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

/* Returns the normalized form of the book field selected by searchBy. */
func SearchField(b Book, searchBy string) string {
	switch searchBy {
	case SearchByAuthor:
		return NormalizeSearch(b.Author)
	case SearchByISBN:
		return NormalizeSearch(b.ISBN)
	default:
		return NormalizeSearch(b.Title)
	}
}
