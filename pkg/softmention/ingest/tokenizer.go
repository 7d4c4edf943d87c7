package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Tokenizer splits text into layout tokens carrying document-global byte
// offsets. Letters and digits form words; every other rune, whitespace
// included, becomes its own token, so that concatenating the token texts
// reproduces the input exactly.
type Tokenizer struct{}

// NewTokenizer creates a tokenizer that keeps line breaks as "\n" tokens.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text starting at offset 0 on page 0.
func (t *Tokenizer) Tokenize(text string) []mention.Token {
	return t.TokenizeAt(text, 0, 0)
}

// TokenizeAt splits text whose first byte sits at base in the document.
func (t *Tokenizer) TokenizeAt(text string, base, page int) []mention.Token {
	var tokens []mention.Token
	var current strings.Builder
	start := 0

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, mention.Token{Text: current.String(), Offset: base + start, Page: page})
			current.Reset()
		}
	}

	for i, r := range text {
		if isWordRune(r) {
			if current.Len() == 0 {
				start = i
			}
			current.WriteRune(r)
			continue
		}
		flush()
		tok := string(r)
		if r == utf8.RuneError {
			tok = text[i : i+1]
		}
		tokens = append(tokens, mention.Token{Text: tok, Offset: base + i, Page: page})
	}

	// Don't forget the last token
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// Retokenize splits tokens coming from an external segmenter so that every
// token follows this tokenizer's word/delimiter rules. Page numbers and
// offsets are preserved.
func (t *Tokenizer) Retokenize(tokens []mention.Token) []mention.Token {
	out := make([]mention.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.IsNewline() {
			out = append(out, tok)
			continue
		}
		out = append(out, t.TokenizeAt(tok.Text, tok.Offset, tok.Page)...)
	}
	return out
}

// SplitLines cuts a token run at newline tokens. Empty lines are dropped.
// Figure and table content is labeled line by line.
func SplitLines(tokens []mention.Token) [][]mention.Token {
	var lines [][]mention.Token
	var current []mention.Token
	for _, tok := range tokens {
		if tok.IsNewline() {
			if len(current) > 0 {
				lines = append(lines, current)
			}
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}
