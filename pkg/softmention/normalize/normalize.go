// Package normalize regularizes the raw text of extracted fields.
//
// Labelers are inconsistent about what they include in a field: a version
// may come with the word "version" or surrounding brackets, a URL with
// trailing punctuation, a creator with a full postal address. The functions
// here strip those parts so that equal values compare equal.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	spaces = regexp.MustCompile(`\s+`)

	versionPrefix = regexp.MustCompile(`(?i)^(ver(-)?sion(s)?|ver|v|release(s)?|build)\s?\.?\s?`)
	versionSuffix = regexp.MustCompile(`(?i)(version(s)?|ver|release(s)?)$`)

	urlPattern     = regexp.MustCompile(`(?i)(https?|ftp)\s?:\s?//\s?[-A-Z0-9+&@#/%?=~_()|!:,.;\s]*[-A-Z0-9+&@#/%=~_()|]`)
	companyPattern = regexp.MustCompile(`(?i)(incorporated|inc|corporation|corp|ltd)\s?\.?`)
)

const (
	bracketChars     = "()[]"
	punctuationChars = "()[],;.’“\""
	nameTrimChars    = "()[]{}\"'“”‘’«»,;:"
)

// Text applies Unicode NFKC normalization and turns tabs and line breaks
// into plain spaces. Byte length may change, so it must run before
// tokenization.
func Text(text string) string {
	text = norm.NFKC.String(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return ' '
		}
		return r
	}, text)
}

// Name returns the grouping key of a software name: NFKC, collapsed
// whitespace, trimmed quotes and brackets, case folded.
func Name(raw string) string {
	name := collapse(norm.NFKC.String(raw))
	name = TrimEnds(name, nameTrimChars)
	name = strings.TrimSpace(name)
	return strings.ToLower(name)
}

// Version strips the "version" keyword family and surrounding brackets.
//
//	"(version 2.1)" -> "2.1"
//	"v.3"           -> "3"
func Version(raw string) string {
	v := collapse(raw)
	v = TrimEnds(v, bracketChars)
	v = versionPrefix.ReplaceAllString(v, "")
	v = versionSuffix.ReplaceAllString(v, "")
	v = TrimEnds(v, ".")
	return collapse(v)
}

// URL extracts the last http(s) or ftp URL found in raw, removing the
// spaces that PDF extraction tends to insert. If no URL pattern matches,
// the trimmed input is returned.
func URL(raw string) string {
	u := collapse(raw)
	u = TrimEnds(u, punctuationChars)
	matches := urlPattern.FindAllString(u, -1)
	if len(matches) == 0 {
		return u
	}
	return strings.ReplaceAll(matches[len(matches)-1], " ", "")
}

// Creator drops anything after a company suffix such as "Inc." or "Ltd".
func Creator(raw string) string {
	c := collapse(raw)
	c = TrimEnds(c, punctuationChars)
	locs := companyPattern.FindAllStringIndex(c, -1)
	if len(locs) > 0 {
		c = c[:locs[len(locs)-1][1]]
	}
	return strings.TrimSpace(collapse(c))
}

// TrimEnds removes any leading and trailing runes contained in chars.
func TrimEnds(s, chars string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return strings.ContainsRune(chars, r)
	})
}

func collapse(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimFunc(s, unicode.IsSpace)
}
