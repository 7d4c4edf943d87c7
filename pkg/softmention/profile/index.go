// Package profile builds the per-document view of known software names
// used by propagation: a matcher over the names, their frequency in the
// token stream, and the spans already labeled for each name.
package profile

import (
	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Profile describes one distinct name in the current entity set.
type Profile struct {
	Occupied []mention.Span
	Weight   float64
}

// Index is rebuilt for every processing pass over an entity list.
type Index struct {
	Matcher     *ingest.Matcher
	Frequencies map[string]int
	Profiles    map[string]Profile
}

// Build indexes the raw names of entities against tokens. Weights come from
// rarity; a nil table gives every name weight 0.
func Build(entities []mention.Entity, tokens []mention.Token, tokenizer *ingest.Tokenizer, rarity *lexicon.Table) *Index {
	idx := &Index{
		Matcher:  ingest.NewMatcher(tokenizer),
		Profiles: make(map[string]Profile),
	}

	for _, e := range entities {
		term := e.Name.Raw
		if term == "" {
			continue
		}
		idx.Matcher.LoadTerm(term)

		p, ok := idx.Profiles[term]
		if !ok {
			p.Weight = rarity.Weight(term)
		}
		p.Occupied = append(p.Occupied, e.Name.Span)
		idx.Profiles[term] = p
	}

	idx.Frequencies = idx.Matcher.Count(tokens)
	return idx
}

// Frequency returns how often term occurs in the indexed token stream,
// defaulting to 1 for terms that were never counted.
func (idx *Index) Frequency(term string) int {
	if f, ok := idx.Frequencies[term]; ok {
		return f
	}
	return 1
}

// Score is frequency × weight for a profiled term. The second result is
// false when the term has no profile.
func (idx *Index) Score(term string) (float64, bool) {
	p, ok := idx.Profiles[term]
	if !ok {
		return 0, false
	}
	return float64(idx.Frequency(term)) * p.Weight, true
}

// Occupied reports whether a labeled occurrence of term already starts at
// start.
func (idx *Index) Occupied(term string, start int) bool {
	for _, s := range idx.Profiles[term].Occupied {
		if s.Start == start {
			return true
		}
	}
	return false
}
