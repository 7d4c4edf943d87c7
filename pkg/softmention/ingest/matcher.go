package ingest

import (
	"strings"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Matcher finds exact occurrences of known terms in a token stream.
// Matching is case sensitive, works on whole tokens and ignores delimiter
// tokens on both sides: "Stata/SE" matches "Stata SE" and "Stata - SE".
// At each position the longest term wins and matches never overlap.
type Matcher struct {
	tokenizer *Tokenizer
	dict      map[string]string // delimiter-free token key → term
	terms     []string
	maxLen    int
}

// Match is one occurrence of a term in a token stream. First and Last are
// inclusive token indices.
type Match struct {
	Term  string
	First int
	Last  int
	Span  mention.Span
}

// NewMatcher creates an empty matcher that tokenizes terms with tokenizer.
func NewMatcher(tokenizer *Tokenizer) *Matcher {
	if tokenizer == nil {
		tokenizer = NewTokenizer()
	}
	return &Matcher{
		tokenizer: tokenizer,
		dict:      make(map[string]string),
		maxLen:    1,
	}
}

// LoadTerm registers a term. Terms made only of delimiters are ignored.
// When two terms share the same delimiter-free form the first one wins.
func (m *Matcher) LoadTerm(term string) {
	words := words(m.tokenizer.Tokenize(term))
	if len(words) == 0 {
		return
	}
	key := strings.Join(words, " ")
	if _, ok := m.dict[key]; ok {
		return
	}
	m.dict[key] = term
	m.terms = append(m.terms, term)
	if len(words) > m.maxLen {
		m.maxLen = len(words)
	}
}

// Terms returns the registered terms in load order.
func (m *Matcher) Terms() []string {
	return m.terms
}

// Len returns the number of registered terms.
func (m *Matcher) Len() int {
	return len(m.terms)
}

// Match applies greedy longest-match over tokens.
func (m *Matcher) Match(tokens []mention.Token) []Match {
	if len(m.dict) == 0 {
		return nil
	}

	// positions of the non-delimiter tokens
	idx := make([]int, 0, len(tokens))
	for i, tok := range tokens {
		if !tok.IsDelimiter() {
			idx = append(idx, i)
		}
	}

	var result []Match
	i := 0
	for i < len(idx) {
		maxPhrase := m.maxLen
		if remaining := len(idx) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}

		matchLen := 0
		for n := maxPhrase; n >= 1; n-- {
			key := joinTokens(tokens, idx[i:i+n])
			if term, ok := m.dict[key]; ok {
				first, last := idx[i], idx[i+n-1]
				result = append(result, Match{
					Term:  term,
					First: first,
					Last:  last,
					Span:  mention.TokensSpan(tokens[first : last+1]),
				})
				matchLen = n
				break
			}
		}

		if matchLen > 0 {
			i += matchLen
		} else {
			i++
		}
	}

	return result
}

// Count returns how many times each registered term occurs in tokens.
// Every term is matched on its own, so "SPSS" inside "SPSS Statistics"
// counts for both terms.
func (m *Matcher) Count(tokens []mention.Token) map[string]int {
	counts := make(map[string]int, len(m.terms))
	for _, term := range m.terms {
		single := NewMatcher(m.tokenizer)
		single.LoadTerm(term)
		counts[term] = len(single.Match(tokens))
	}
	return counts
}

func words(tokens []mention.Token) []string {
	var out []string
	for _, tok := range tokens {
		if !tok.IsDelimiter() {
			out = append(out, tok.Text)
		}
	}
	return out
}

func joinTokens(tokens []mention.Token, positions []int) string {
	var b strings.Builder
	for i, p := range positions {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tokens[p].Text)
	}
	return b.String()
}
