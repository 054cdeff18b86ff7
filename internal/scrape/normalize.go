package scrape

import (
	"strings"
	"unicode"
)

// ParsePrice strips the currency marker from a rendered price and
// returns the bare decimal text, e.g. "£4.50" -> "4.50". Text without
// the marker yields an AmbiguityError: a silently corrupted price is
// worse than a failed extraction.
func ParsePrice(raw string) (string, error) {
	_, after, found := strings.Cut(raw, "£")
	if !found {
		return "", &AmbiguityError{Field: "price", Raw: raw}
	}
	return strings.TrimSpace(after), nil
}

// CleanLeadingNonLetter strips the run of leading non-letter
// characters (bullet glyphs, digits, whitespace) the site prepends to
// customisation option names. Names with no letter at all are returned
// unchanged.
func CleanLeadingNonLetter(s string) string {
	idx := strings.IndexFunc(s, unicode.IsLetter)
	if idx < 0 {
		return s
	}
	return s[idx:]
}

// NormalizePostcode removes all internal whitespace, e.g.
// "PA3 2AN" -> "PA32AN". The original offset of the space is not
// preserved.
func NormalizePostcode(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Slugify renders a name safe for use as a directory name: ASCII-only,
// lowercased, punctuation dropped, runs of spaces and hyphens folded
// into single hyphens.
func Slugify(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r > unicode.MaxASCII:
			// Drop non-ASCII rather than guess a transliteration.
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	return strings.Join(fields, "-")
}

// CleanURL normalizes a restaurant URL to scheme://host/first-segment,
// prefixing https:// when no scheme is present.
func CleanURL(url string) string {
	if !strings.Contains(url, "http") {
		url = "https://" + url
	}
	parts := strings.Split(url, "/")
	if len(parts) < 4 {
		return url
	}
	return parts[0] + "//" + parts[2] + "/" + parts[3]
}

// RebrandDescription rewrites the platform's branding in free-text
// descriptions before they are persisted.
func RebrandDescription(s string) string {
	s = strings.ReplaceAll(s, "just-eat", "goeatdirect")
	s = strings.ReplaceAll(s, "JUST EAT", "GO EAT DIRECT")
	return s
}
