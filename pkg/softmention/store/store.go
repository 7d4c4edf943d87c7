package store

import (
	"context"
	"time"

	"github.com/cognicore/softmention/pkg/softmention/mention"
)

// Store persists processed documents, their software mentions and the
// document frequency of software names across the corpus.
type Store interface {
	Close() error

	// Docs
	UpsertDoc(ctx context.Context, d Doc) (Doc, error)
	GetDoc(ctx context.Context, id string) (Doc, error)
	GetDocBySource(ctx context.Context, source string) (Doc, bool, error)

	// Mentions
	MentionsByName(ctx context.Context, name string, limit int) ([]Mention, error)

	// Name statistics
	NameDF(ctx context.Context, name string) (int64, error)
	NameStats(ctx context.Context) (NameStats, error)
}

// Doc is a processed document. Documents with a non-empty Source are
// unique by Source: storing the same source again replaces its mentions
// and keeps the original ID.
type Doc struct {
	ID          string
	Source      string
	Title       string
	ProcessedAt time.Time
	Mentions    []Mention
}

// Mention is one stored entity. Name is the normalized software name.
type Mention struct {
	ID     string
	DocID  string
	Name   string
	Record mention.Record
}

// NameStats is the corpus view used to derive rarity weights.
type NameStats struct {
	Docs int64            // number of stored documents
	DF   map[string]int64 // documents mentioning each normalized name
}

// Names returns the distinct mention names of a document, the unit counted
// by document frequency.
func (d Doc) Names() []string {
	seen := make(map[string]struct{}, len(d.Mentions))
	var out []string
	for _, m := range d.Mentions {
		if m.Name == "" {
			continue
		}
		if _, ok := seen[m.Name]; ok {
			continue
		}
		seen[m.Name] = struct{}{}
		out = append(out, m.Name)
	}
	return out
}
