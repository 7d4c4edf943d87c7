// Package mention defines the software mention data model: tokens, typed
// components, aggregated entities and their serialized records.
//
// All offsets are byte offsets into the UTF-8 text of the document and all
// spans are half-open.
package mention

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the closed set of component field types.
type Kind int

const (
	KindOther Kind = iota
	KindSoftware
	KindVersion
	KindCreator
	KindURL
)

// FieldKinds are the kinds an entity holds at most once next to its name.
var FieldKinds = []Kind{KindVersion, KindCreator, KindURL}

func (k Kind) String() string {
	switch k {
	case KindSoftware:
		return "software"
	case KindVersion:
		return "version"
	case KindCreator:
		return "creator"
	case KindURL:
		return "url"
	default:
		return "other"
	}
}

// ParseKind maps a labeler output to a Kind. It accepts plain names
// ("SOFTWARE", "version"), tagged names ("<software>") and BIO prefixed
// names ("B-URL", "I-creator"). Unknown labels map to KindOther.
func ParseKind(label string) Kind {
	kind, _ := ParseLabel(label)
	return kind
}

// ParseLabel is ParseKind that also reports whether the label marks the
// beginning of a new span ("B-" prefix).
func ParseLabel(label string) (Kind, bool) {
	l := strings.TrimSpace(label)
	begin := false
	switch {
	case strings.HasPrefix(l, "B-"):
		begin = true
		l = l[2:]
	case strings.HasPrefix(l, "I-"):
		l = l[2:]
	}
	l = strings.Trim(l, "<>")
	switch strings.ToLower(l) {
	case "software", "software-name":
		return KindSoftware, begin
	case "version", "version-number":
		return KindVersion, begin
	case "creator":
		return KindCreator, begin
	case "url", "software-url":
		return KindURL, begin
	default:
		return KindOther, begin
	}
}

// Span is a half-open byte interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether o lies fully inside s.
func (s Span) Contains(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Token is a unit produced by the tokenizer with its document-global offset.
type Token struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Page   int    `json:"page,omitempty"`
}

// End returns the offset just after the token.
func (t Token) End() int { return t.Offset + len(t.Text) }

// IsNewline reports whether the token is a line break marker.
func (t Token) IsNewline() bool {
	return t.Text == "\n" || strings.TrimSpace(t.Text) == "@newline"
}

// IsSpace reports whether the token only holds whitespace.
func (t Token) IsSpace() bool {
	return strings.TrimSpace(t.Text) == ""
}

// IsDelimiter reports whether the token is whitespace or a single
// punctuation/symbol rune.
func (t Token) IsDelimiter() bool {
	if t.IsSpace() {
		return true
	}
	if utf8.RuneCountInString(t.Text) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t.Text)
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// TokensText concatenates token texts.
func TokensText(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// TokensSpan returns the span covered by a non-empty token run.
func TokensSpan(tokens []Token) Span {
	if len(tokens) == 0 {
		return Span{}
	}
	return Span{Start: tokens[0].Offset, End: tokens[len(tokens)-1].End()}
}

// Component is a single typed mention fragment. It is never mutated after
// extraction.
type Component struct {
	Kind   Kind
	Raw    string
	Span   Span
	Tokens []Token
}

// Knowledge is the disambiguation metadata attached to a software name.
type Knowledge struct {
	ID   string `json:"id,omitempty"` // external identifier, e.g. a Wikidata QID
	Lang string `json:"lang,omitempty"`
}

// Empty reports whether no identifier is set.
func (k Knowledge) Empty() bool { return k.ID == "" }

// BiblioRef is a bibliographic reference callout resolved to an entry of
// the document bibliography.
type BiblioRef struct {
	RefKey int    `json:"refKey"`
	Raw    string `json:"label"`
	Span   Span   `json:"span"`
}
