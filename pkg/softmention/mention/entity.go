package mention

import (
	"slices"
	"sort"
)

// Entity is an aggregated software mention anchored on its name component.
// Version, Creator and URL hold at most one component each.
type Entity struct {
	Name    Component
	Version *Component
	Creator *Component
	URL     *Component

	Refs      []BiblioRef
	Knowledge Knowledge

	// Segment names the document part the entity was found in.
	Segment string
	// Propagated is set on entities created from unlabeled occurrences.
	Propagated bool
}

// NewEntity anchors a new entity on a software name component.
func NewEntity(name Component) Entity {
	return Entity{Name: name}
}

// Start returns the start offset of the name, the entity ordering key.
func (e *Entity) Start() int { return e.Name.Span.Start }

// Field returns the component held for kind, or nil.
func (e *Entity) Field(kind Kind) *Component {
	switch kind {
	case KindVersion:
		return e.Version
	case KindCreator:
		return e.Creator
	case KindURL:
		return e.URL
	}
	return nil
}

// FreeField reports whether the slot for kind can still take a component.
// The name slot and KindOther are never free.
func (e *Entity) FreeField(kind Kind) bool {
	switch kind {
	case KindVersion, KindCreator, KindURL:
		return e.Field(kind) == nil
	}
	return false
}

// SetComponent stores c in its field slot if that slot is free. It returns
// false and leaves the entity untouched otherwise.
func (e *Entity) SetComponent(c Component) bool {
	if !e.FreeField(c.Kind) {
		return false
	}
	cc := c
	switch c.Kind {
	case KindVersion:
		e.Version = &cc
	case KindCreator:
		e.Creator = &cc
	case KindURL:
		e.URL = &cc
	}
	return true
}

// ClearField empties the slot for kind.
func (e *Entity) ClearField(kind Kind) {
	switch kind {
	case KindVersion:
		e.Version = nil
	case KindCreator:
		e.Creator = nil
	case KindURL:
		e.URL = nil
	}
}

// EndPos is the largest end offset among the name and attached fields.
func (e *Entity) EndPos() int {
	end := e.Name.Span.End
	for _, k := range FieldKinds {
		if c := e.Field(k); c != nil && c.Span.End > end {
			end = c.Span.End
		}
	}
	return end
}

// HasRefs reports whether at least one reference is attached.
func (e *Entity) HasRefs() bool { return len(e.Refs) > 0 }

// AddRef appends a reference unless one with the same key and span is
// already attached.
func (e *Entity) AddRef(ref BiblioRef) {
	for _, r := range e.Refs {
		if r.RefKey == ref.RefKey && r.Span == ref.Span {
			return
		}
	}
	e.Refs = append(e.Refs, ref)
}

// Clone returns a copy that shares no mutable state with e.
func (e Entity) Clone() Entity {
	out := e
	out.Refs = slices.Clone(e.Refs)
	for _, k := range FieldKinds {
		if c := e.Field(k); c != nil {
			out.ClearField(k)
			out.SetComponent(*c)
		}
	}
	return out
}

// SortEntities orders entities by name start offset, keeping the relative
// order of entities that start at the same offset.
func SortEntities(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Name.Span.Start < entities[j].Name.Span.Start
	})
}

// IsSorted reports whether entities are ordered by name start offset.
func IsSorted(entities []Entity) bool {
	return sort.SliceIsSorted(entities, func(i, j int) bool {
		return entities[i].Name.Span.Start < entities[j].Name.Span.Start
	})
}
