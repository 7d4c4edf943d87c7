// Package label provides sequence labelers producing one field label per
// token.
//
// Labels use the BIO convention understood by mention.ParseLabel:
// "B-software", "I-version", "O" and so on.
package label

import (
	"context"

	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Outside is the label of tokens that belong to no component.
const Outside = "O"

// Labeler assigns one label to each token. A failure aborts the document.
type Labeler interface {
	Label(ctx context.Context, tokens []mention.Token) ([]string, error)
}

// Func adapts a function to the Labeler interface.
type Func func(ctx context.Context, tokens []mention.Token) ([]string, error)

// Label calls f.
func (f Func) Label(ctx context.Context, tokens []mention.Token) ([]string, error) {
	return f(ctx, tokens)
}

// Begin and Inside build BIO labels for kind.
func Begin(kind mention.Kind) string  { return "B-" + kind.String() }
func Inside(kind mention.Kind) string { return "I-" + kind.String() }

// Gazetteer labels every occurrence of a known software name as a
// software component. It needs no model and is used when none is
// configured.
type Gazetteer struct {
	matcher *ingest.Matcher
}

// NewGazetteer builds a gazetteer over names.
func NewGazetteer(tokenizer *ingest.Tokenizer, names []string) *Gazetteer {
	m := ingest.NewMatcher(tokenizer)
	for _, n := range names {
		m.LoadTerm(n)
	}
	return &Gazetteer{matcher: m}
}

// Len returns the number of distinct names.
func (g *Gazetteer) Len() int { return g.matcher.Len() }

// Label marks matched tokens, delimiters inside a match included.
func (g *Gazetteer) Label(ctx context.Context, tokens []mention.Token) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := outside(len(tokens))
	for _, m := range g.matcher.Match(tokens) {
		labels[m.First] = Begin(mention.KindSoftware)
		for i := m.First + 1; i <= m.Last; i++ {
			labels[i] = Inside(mention.KindSoftware)
		}
	}
	return labels, nil
}

func outside(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = Outside
	}
	return labels
}
