// Package store defines persistence for processed documents and the
// corpus statistics derived from them.
package store

import (
	"github.com/google/uuid"

	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
)

// NewDoc builds a document from processed entities. Every mention gets a
// fresh random ID.
func NewDoc(id, source, title string, entities []mention.Entity) Doc {
	d := Doc{ID: id, Source: source, Title: title}
	for _, e := range entities {
		d.Mentions = append(d.Mentions, Mention{
			ID:     uuid.NewString(),
			DocID:  id,
			Name:   normalize.Name(e.Name.Raw),
			Record: mention.ToRecord(e),
		})
	}
	return d
}
