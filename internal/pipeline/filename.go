package pipeline

import "regexp"

var (
	schemeRe = regexp.MustCompile(`^https?://`)
	unsafeRe = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
)

// maxStemLength bounds the sanitized stem before the extension is added.
const maxStemLength = 100

// SanitizeURL derives a PDF file name from a post URL: scheme stripped,
// anything outside [a-zA-Z0-9-_.] replaced with underscores, capped at 100
// characters plus the extension. Distinct URLs can collide after
// sanitization; the last render wins, matching directory semantics.
func SanitizeURL(rawURL string) string {
	stem := schemeRe.ReplaceAllString(rawURL, "")
	stem = unsafeRe.ReplaceAllString(stem, "_")
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	return stem + ".pdf"
}
