package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()

	phoneRegex = regexp.MustCompile(`(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// CleanText strips markup, decodes entities and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	return strings.Join(strings.Fields(s), " ")
}

// ExtractPhone returns the first US phone number found in text, or "".
func ExtractPhone(text string) string {
	return strings.TrimSpace(phoneRegex.FindString(text))
}

// ExtractEmail returns the first email address found in text, or "".
func ExtractEmail(text string) string {
	return emailRegex.FindString(text)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "district of columbia": "DC",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY", "louisiana": "LA",
	"maine": "ME", "maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA",
	"washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// StateCode maps a state code, name or directory slug ("oregon-skateparks",
// "northern-california") to its two-letter code. Unknown values yield "".
func StateCode(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 2 {
		up := strings.ToUpper(s)
		for _, code := range stateCodes {
			if code == up {
				return up
			}
		}
		return ""
	}
	name := strings.ToLower(strings.ReplaceAll(s, "-", " "))
	name = strings.TrimSuffix(name, " skateparks")
	name = strings.TrimPrefix(strings.TrimPrefix(name, "northern "), "southern ")
	name = strings.Join(strings.Fields(name), " ")
	return stateCodes[name]
}

// CodeToStateName is the inverse of StateCode for full names, lowercased.
func CodeToStateName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for name, c := range stateCodes {
		if c == code {
			return name
		}
	}
	return ""
}
