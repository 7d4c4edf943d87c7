// Package aggregate groups components into software entities anchored on
// their name components.
package aggregate

import (
	"sort"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// LeftBias weighs the distance to the following name when a component sits
// between two names: fields usually trail the software they describe.
const LeftBias = 2

// GroupByEntities builds one entity per SOFTWARE component, then attaches
// every other component to the closest entity whose slot is still free.
// Components are taken in offset order; the result is offset ordered.
func GroupByEntities(components []mention.Component) []mention.Entity {
	ordered := make([]mention.Component, len(components))
	copy(ordered, components)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Span.Start < ordered[j].Span.Start
	})

	// first pass: anchors
	var entities []mention.Entity
	for _, c := range ordered {
		if c.Kind == mention.KindSoftware {
			entities = append(entities, mention.NewEntity(c))
		}
	}
	if len(entities) == 0 {
		return entities
	}

	// second pass: fields, with prev/cur cursors over the anchors
	prev, cur := 0, 1
	for _, c := range ordered {
		if c.Kind == mention.KindSoftware || c.Kind == mention.KindOther {
			continue
		}

		for cur < len(entities) && c.Span.Start >= entities[cur].Name.Span.End {
			prev = cur
			cur++
		}

		target := pickTarget(entities, prev, cur, c)
		entities[target].SetComponent(c)
	}

	return entities
}

// pickTarget returns the index of the entity c should attach to.
func pickTarget(entities []mention.Entity, prev, cur int, c mention.Component) int {
	if cur >= len(entities) {
		// nothing on the right
		return prev
	}

	prevName := entities[prev].Name.Span
	curName := entities[cur].Name.Span

	switch {
	case c.Span.End <= prevName.Start:
		return prev
	case c.Span.End <= curName.Start:
		distRight := curName.Start - c.Span.End
		distLeft := c.Span.Start - prevName.End
		if distLeft <= LeftBias*distRight {
			return prev
		}
		return cur
	default:
		return cur
	}
}
