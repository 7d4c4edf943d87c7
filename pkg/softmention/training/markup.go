// Package training renders labeled text as inline annotated markup for
// building training corpora.
package training

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Render wraps text in a paragraph and every component in an
// <rs type="..."> element. Component spans are offsets into text; spans
// overlapping an earlier component or falling outside text are skipped.
func Render(components []mention.Component, text string) string {
	sorted := make([]mention.Component, len(components))
	copy(sorted, components)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Span.Start < sorted[j].Span.Start })

	var b strings.Builder
	b.WriteString("<p>")
	pos := 0
	for _, c := range sorted {
		if c.Kind == mention.KindOther {
			continue
		}
		start, end := c.Span.Start, c.Span.End
		if start < pos || end > len(text) || start >= end {
			continue
		}
		b.WriteString(html.EscapeString(text[pos:start]))
		b.WriteString(`<rs type="`)
		b.WriteString(c.Kind.String())
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(text[start:end]))
		b.WriteString("</rs>")
		pos = end
	}
	b.WriteString(html.EscapeString(text[pos:]))
	b.WriteString("</p>")
	return b.String()
}

// RenderEntities renders the name and attached fields of entities.
func RenderEntities(entities []mention.Entity, text string) string {
	var components []mention.Component
	for _, e := range entities {
		components = append(components, e.Name)
		for _, k := range mention.FieldKinds {
			if c := e.Field(k); c != nil {
				components = append(components, *c)
			}
		}
	}
	return Render(components, text)
}

// Paragraphs splits text at blank lines. Lines inside a paragraph are
// trimmed and joined with single spaces.
func Paragraphs(text string) []string {
	var out, cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

// Document wraps rendered paragraphs into a text element.
func Document(lang string, paragraphs []string) string {
	var b strings.Builder
	b.WriteString(`<text xml:lang="`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString("\">\n")
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString("</text>\n")
	return b.String()
}
