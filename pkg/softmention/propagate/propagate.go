// Package propagate finds unlabeled occurrences of already identified
// software names and turns them into entities.
package propagate

import (
	"strings"

	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/profile"
)

// Threshold is the frequency × rarity score a known-rarity term must
// exceed to be propagated. Scores in (0, Threshold] are treated as generic
// words and skipped; scores <= 0 mean "no rarity information" and pass.
const Threshold = 0.001

// Accept applies the propagation rule to a score.
func Accept(score float64) bool {
	return score <= 0 || score > Threshold
}

// Propagate scans tokens for every name known to idx and returns entities
// followed by one new entity per accepted occurrence. The input slice is
// not modified. New entities are appended, so the result is not sorted.
//
// An occurrence is skipped only when a labeled occurrence of the same term
// already starts at the same offset. Overlaps between different terms are
// kept.
func Propagate(tokens []mention.Token, entities []mention.Entity, idx *profile.Index) []mention.Entity {
	out := make([]mention.Entity, len(entities), len(entities)+8)
	copy(out, entities)

	if idx == nil || idx.Matcher.Len() == 0 {
		return out
	}

	for _, m := range idx.Matcher.Match(tokens) {
		if idx.Occupied(m.Term, m.Span.Start) {
			continue
		}

		score, ok := idx.Score(m.Term)
		if !ok {
			score = -1
		}
		if !Accept(score) {
			continue
		}

		matched := tokens[m.First : m.Last+1]
		name := mention.Component{
			Kind:   mention.KindSoftware,
			Raw:    rawText(matched),
			Span:   m.Span,
			Tokens: matched,
		}
		e := mention.NewEntity(name)
		e.Propagated = true
		e.Knowledge = knowledgeFor(entities, name.Raw)
		out = append(out, e)
	}

	return out
}

// knowledgeFor returns the disambiguation of the first entity with the same
// raw name that has one.
func knowledgeFor(entities []mention.Entity, raw string) mention.Knowledge {
	for _, e := range entities {
		if e.Name.Raw == raw && !e.Knowledge.Empty() {
			return e.Knowledge
		}
	}
	return mention.Knowledge{}
}

func rawText(tokens []mention.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.IsNewline() {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}
