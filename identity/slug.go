package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	quoteRegex    = regexp.MustCompile(`['’‘"]`)
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug builds a lowercase, hyphenated, URL-safe key from the non-empty parts,
// e.g. ("Burnside Skatepark", "Portland", "OR") -> "burnside-skatepark-portland-or".
// It returns "" when nothing alphanumeric survives.
func Slug(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	s := foldASCII(strings.Join(kept, "-"))
	s = strings.ToLower(s)
	s = quoteRegex.ReplaceAllString(s, "")
	s = nonAlnumRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Fingerprint is a short stable hash of the parts, used when a slug would be empty.
func Fingerprint(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:4])
}

// foldASCII strips diacritics so "Café Rink" and "Cafe Rink" produce the same slug.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
