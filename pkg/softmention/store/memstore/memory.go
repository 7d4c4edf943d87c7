package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

// Store is an in-memory implementation of store.Store for tests and
// single-run CLI use.
type Store struct {
	mu          sync.RWMutex
	docs        map[string]store.Doc
	sourceIndex map[string]string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		docs:        make(map[string]store.Doc),
		sourceIndex: make(map[string]string),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertDoc stores a document, replacing the one with the same source.
func (s *Store) UpsertDoc(ctx context.Context, d store.Doc) (store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Source != "" {
		if existing, ok := s.sourceIndex[d.Source]; ok {
			d.ID = existing
		}
	}
	if d.ID == "" {
		return store.Doc{}, fmt.Errorf("%w: document needs an id or a source", internalerr.ErrInvalidInput)
	}
	if d.ProcessedAt.IsZero() {
		d.ProcessedAt = time.Now().UTC()
	}

	d = copyDoc(d)
	for i := range d.Mentions {
		d.Mentions[i].DocID = d.ID
		if d.Mentions[i].ID == "" {
			d.Mentions[i].ID = uuid.NewString()
		}
	}

	s.docs[d.ID] = d
	if d.Source != "" {
		s.sourceIndex[d.Source] = d.ID
	}
	return copyDoc(d), nil
}

// GetDoc returns a document by ID.
func (s *Store) GetDoc(ctx context.Context, id string) (store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return copyDoc(doc), nil
	}
	return store.Doc{}, fmt.Errorf("doc %s: %w", id, internalerr.ErrNotFound)
}

// GetDocBySource returns a document by source.
func (s *Store) GetDocBySource(ctx context.Context, source string) (store.Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.sourceIndex[source]; ok {
		if doc, exists := s.docs[id]; exists {
			return copyDoc(doc), true, nil
		}
	}
	return store.Doc{}, false, nil
}

// MentionsByName returns mentions of a software name, most recently
// processed documents first.
func (s *Store) MentionsByName(ctx context.Context, name string, limit int) ([]store.Mention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	key := normalize.Name(name)

	type scored struct {
		m  store.Mention
		ts time.Time
	}
	var results []scored
	for _, doc := range s.docs {
		for _, m := range doc.Mentions {
			if m.Name == key {
				results = append(results, scored{m: m, ts: doc.ProcessedAt})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].ts.Equal(results[j].ts) {
			return results[i].ts.After(results[j].ts)
		}
		if results[i].m.DocID != results[j].m.DocID {
			return results[i].m.DocID < results[j].m.DocID
		}
		return results[i].m.Record.SoftwareName.OffsetStart < results[j].m.Record.SoftwareName.OffsetStart
	})

	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]store.Mention, len(results))
	for i, r := range results {
		out[i] = r.m
	}
	return out, nil
}

// NameDF returns the number of documents mentioning name.
func (s *Store) NameDF(ctx context.Context, name string) (int64, error) {
	stats, err := s.NameStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.DF[normalize.Name(name)], nil
}

// NameStats counts documents and per-name document frequencies.
func (s *Store) NameStats(ctx context.Context) (store.NameStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := store.NameStats{Docs: int64(len(s.docs)), DF: make(map[string]int64)}
	for _, doc := range s.docs {
		for _, name := range doc.Names() {
			stats.DF[name]++
		}
	}
	return stats, nil
}

func copyDoc(d store.Doc) store.Doc {
	out := d
	out.Mentions = make([]store.Mention, len(d.Mentions))
	copy(out.Mentions, d.Mentions)
	return out
}
