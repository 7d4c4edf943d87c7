package mention

import "github.com/cognicore/softmention/pkg/softmention/normalize"

// FieldRecord is the serialized form of a component.
type FieldRecord struct {
	RawForm        string `json:"rawForm"`
	NormalizedForm string `json:"normalizedForm,omitempty"`
	OffsetStart    int    `json:"offsetStart"`
	OffsetEnd      int    `json:"offsetEnd"`
}

// RefRecord is the serialized form of an attached bibliographic reference.
type RefRecord struct {
	RefKey      int    `json:"refKey"`
	Label       string `json:"label,omitempty"`
	OffsetStart int    `json:"offsetStart"`
	OffsetEnd   int    `json:"offsetEnd"`
}

// Record is the serialized form of an entity handed to callers.
type Record struct {
	Type         string       `json:"type"`
	SoftwareName FieldRecord  `json:"software-name"`
	Version      *FieldRecord `json:"version,omitempty"`
	Creator      *FieldRecord `json:"creator,omitempty"`
	URL          *FieldRecord `json:"url,omitempty"`
	References   []RefRecord  `json:"references,omitempty"`
	WikidataID   string       `json:"wikidataId,omitempty"`
	Lang         string       `json:"lang,omitempty"`
	Segment      string       `json:"segment,omitempty"`
	Propagated   bool         `json:"propagated,omitempty"`
}

// ToRecord serializes an entity.
func ToRecord(e Entity) Record {
	rec := Record{
		Type:         "software",
		SoftwareName: fieldRecord(e.Name),
		WikidataID:   e.Knowledge.ID,
		Lang:         e.Knowledge.Lang,
		Segment:      e.Segment,
		Propagated:   e.Propagated,
	}
	if e.Version != nil {
		f := fieldRecord(*e.Version)
		rec.Version = &f
	}
	if e.Creator != nil {
		f := fieldRecord(*e.Creator)
		rec.Creator = &f
	}
	if e.URL != nil {
		f := fieldRecord(*e.URL)
		rec.URL = &f
	}
	for _, r := range e.Refs {
		rec.References = append(rec.References, RefRecord{
			RefKey:      r.RefKey,
			Label:       r.Raw,
			OffsetStart: r.Span.Start,
			OffsetEnd:   r.Span.End,
		})
	}
	return rec
}

// ToRecords serializes a list of entities, preserving order.
func ToRecords(entities []Entity) []Record {
	out := make([]Record, 0, len(entities))
	for _, e := range entities {
		out = append(out, ToRecord(e))
	}
	return out
}

// RefKeys lists the reference keys of a record in attachment order.
func (r Record) RefKeys() []int {
	keys := make([]int, 0, len(r.References))
	for _, ref := range r.References {
		keys = append(keys, ref.RefKey)
	}
	return keys
}

func fieldRecord(c Component) FieldRecord {
	f := FieldRecord{
		RawForm:     c.Raw,
		OffsetStart: c.Span.Start,
		OffsetEnd:   c.Span.End,
	}
	switch c.Kind {
	case KindSoftware:
		f.NormalizedForm = normalize.Name(c.Raw)
	case KindVersion:
		f.NormalizedForm = normalize.Version(c.Raw)
	case KindCreator:
		f.NormalizedForm = normalize.Creator(c.Raw)
	case KindURL:
		f.NormalizedForm = normalize.URL(c.Raw)
	}
	return f
}
