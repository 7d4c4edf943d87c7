// Package extract turns labeled token sequences into typed components.
package extract

import (
	"fmt"
	"strings"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Components groups consecutive tokens carrying the same kind into
// components. labels must align 1:1 with tokens. Whitespace and line
// break tokens never break a run and never start or end a component; their
// labels are ignored. A "B-" prefixed label always opens a new component.
// Runs labeled OTHER (or any unknown label) produce nothing.
func Components(tokens []mention.Token, labels []string) ([]mention.Component, error) {
	if len(tokens) != len(labels) {
		return nil, fmt.Errorf("%w: %d tokens but %d labels", internalerr.ErrInvalidInput, len(tokens), len(labels))
	}

	var (
		components []mention.Component
		run        []mention.Token
		runKind    mention.Kind
		pending    []mention.Token // whitespace seen after the last run token
	)

	closeRun := func() {
		if len(run) > 0 && runKind != mention.KindOther {
			components = append(components, newComponent(runKind, run))
		}
		run = nil
		pending = nil
	}

	for i, tok := range tokens {
		if tok.IsSpace() || tok.IsNewline() {
			if len(run) > 0 {
				pending = append(pending, tok)
			}
			continue
		}

		kind, begin := mention.ParseLabel(labels[i])
		if len(run) > 0 && kind == runKind && !begin {
			run = append(run, pending...)
			run = append(run, tok)
			pending = nil
			continue
		}

		closeRun()
		run = []mention.Token{tok}
		runKind = kind
	}
	closeRun()

	return components, nil
}

func newComponent(kind mention.Kind, tokens []mention.Token) mention.Component {
	return mention.Component{
		Kind:   kind,
		Raw:    rawText(tokens),
		Span:   mention.TokensSpan(tokens),
		Tokens: tokens,
	}
}

// rawText renders tokens with line breaks flattened to spaces.
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
