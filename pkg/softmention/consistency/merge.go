// Package consistency reconciles entities across a whole document: it
// spreads disambiguation and references between entities naming the same
// software and collapses duplicates.
//
// Every sweep picks its source entity by offset rather than by list
// position, so the outcome does not depend on input order.
package consistency

import (
	"slices"
	"sort"

	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
)

// Reconcile runs all sweeps and returns a new, offset-sorted entity list.
func Reconcile(entities []mention.Entity) []mention.Entity {
	out := PropagateKnowledge(entities)
	out = PropagateReferences(out)
	out = MergeDuplicates(out)
	mention.SortEntities(out)
	return out
}

// PropagateKnowledge copies the identifier and language of an entity onto
// entities with the same raw name that have none.
func PropagateKnowledge(entities []mention.Entity) []mention.Entity {
	out := cloneAll(entities)
	fillKnowledge(out, rawKey)
	return out
}

// PropagateReferences copies the references of an entity onto entities
// with the same raw name that have none. Each receiver gets its own copy.
func PropagateReferences(entities []mention.Entity) []mention.Entity {
	out := cloneAll(entities)
	fillRefs(out, rawKey)
	return out
}

// MergeDuplicates groups entities by normalized name. Inside a group,
// identifiers and references flow to members lacking them, entities whose
// names cover the same span collapse into one, and free version, creator
// and URL slots are filled from the earliest member holding that field.
func MergeDuplicates(entities []mention.Entity) []mention.Entity {
	out := cloneAll(entities)
	fillKnowledge(out, normalizedKey)
	fillRefs(out, normalizedKey)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Name.Span, out[j].Name.Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	merged := make([]mention.Entity, 0, len(out))
	seen := make(map[dupKey]int, len(out))
	for _, e := range out {
		k := dupKey{name: normalizedKey(e), span: e.Name.Span}
		if i, ok := seen[k]; ok {
			merged[i] = combine(merged[i], e)
			continue
		}
		seen[k] = len(merged)
		merged = append(merged, e)
	}
	fillFields(merged, normalizedKey)
	return merged
}

type dupKey struct {
	name string
	span mention.Span
}

func rawKey(e mention.Entity) string { return e.Name.Raw }

func normalizedKey(e mention.Entity) string { return normalize.Name(e.Name.Raw) }

func cloneAll(entities []mention.Entity) []mention.Entity {
	out := make([]mention.Entity, len(entities))
	for i, e := range entities {
		out[i] = e.Clone()
	}
	return out
}

// groups returns member indices per key, skipping empty keys.
func groups(entities []mention.Entity, key func(mention.Entity) string) map[string][]int {
	g := make(map[string][]int)
	for i, e := range entities {
		k := key(e)
		if k == "" {
			continue
		}
		g[k] = append(g[k], i)
	}
	return g
}

func fillKnowledge(entities []mention.Entity, key func(mention.Entity) string) {
	for _, members := range groups(entities, key) {
		src := -1
		for _, i := range members {
			if entities[i].Knowledge.Empty() {
				continue
			}
			if src < 0 || knowledgeBefore(entities[i], entities[src]) {
				src = i
			}
		}
		if src < 0 {
			continue
		}
		for _, i := range members {
			if entities[i].Knowledge.Empty() {
				entities[i].Knowledge = entities[src].Knowledge
			}
		}
	}
}

func fillRefs(entities []mention.Entity, key func(mention.Entity) string) {
	for _, members := range groups(entities, key) {
		src := -1
		for _, i := range members {
			if !entities[i].HasRefs() {
				continue
			}
			if src < 0 || refsBefore(entities[i], entities[src]) {
				src = i
			}
		}
		if src < 0 {
			continue
		}
		for _, i := range members {
			if !entities[i].HasRefs() {
				entities[i].Refs = slices.Clone(entities[src].Refs)
			}
		}
	}
}

func fillFields(entities []mention.Entity, key func(mention.Entity) string) {
	for _, members := range groups(entities, key) {
		for _, k := range mention.FieldKinds {
			src := -1
			for _, i := range members {
				if entities[i].Field(k) == nil {
					continue
				}
				if src < 0 || fieldBefore(entities[i], entities[src], k) {
					src = i
				}
			}
			if src < 0 {
				continue
			}
			c := *entities[src].Field(k)
			for _, i := range members {
				if entities[i].FreeField(k) {
					entities[i].SetComponent(c)
				}
			}
		}
	}
}

// fieldBefore orders candidate sources of a field by name offset, then by
// the field itself.
func fieldBefore(a, b mention.Entity, k mention.Kind) bool {
	if a.Start() != b.Start() {
		return a.Start() < b.Start()
	}
	if a.Name.Span.End != b.Name.Span.End {
		return a.Name.Span.End < b.Name.Span.End
	}
	fa := a.Field(k)
	return pick(fa, b.Field(k)) == fa
}

func knowledgeBefore(a, b mention.Entity) bool {
	if a.Start() != b.Start() {
		return a.Start() < b.Start()
	}
	if a.Knowledge.ID != b.Knowledge.ID {
		return a.Knowledge.ID < b.Knowledge.ID
	}
	return a.Knowledge.Lang < b.Knowledge.Lang
}

func refsBefore(a, b mention.Entity) bool {
	if a.Start() != b.Start() {
		return a.Start() < b.Start()
	}
	if len(a.Refs) != len(b.Refs) {
		return len(a.Refs) > len(b.Refs)
	}
	return refLess(a.Refs[0], b.Refs[0])
}

func refLess(a, b mention.BiblioRef) bool {
	if a.Span.Start != b.Span.Start {
		return a.Span.Start < b.Span.Start
	}
	return a.RefKey < b.RefKey
}

// combine folds dup into keep. Both name the same span; picks are made by
// content so the result does not depend on which one came first.
func combine(keep, dup mention.Entity) mention.Entity {
	out := keep.Clone()
	for _, k := range mention.FieldKinds {
		c := pick(keep.Field(k), dup.Field(k))
		out.ClearField(k)
		if c != nil {
			out.SetComponent(*c)
		}
	}

	if out.Knowledge.Empty() || (!dup.Knowledge.Empty() && knowledgeBefore(dup, out)) {
		out.Knowledge = dup.Knowledge
	}

	for _, r := range dup.Refs {
		out.AddRef(r)
	}
	sort.SliceStable(out.Refs, func(i, j int) bool { return refLess(out.Refs[i], out.Refs[j]) })

	out.Propagated = keep.Propagated && dup.Propagated
	if out.Segment == "" || (dup.Segment != "" && dup.Segment < out.Segment) {
		out.Segment = dup.Segment
	}
	return out
}

// pick returns the component to keep for a field when two duplicates both
// may hold one: the earlier one, then the lexically smaller one.
func pick(a, b *mention.Component) *mention.Component {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Span.Start != b.Span.Start:
		if a.Span.Start < b.Span.Start {
			return a
		}
		return b
	case a.Raw <= b.Raw:
		return a
	default:
		return b
	}
}
