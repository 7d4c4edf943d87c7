// Package disambiguate resolves software names to external knowledge base
// identifiers.
package disambiguate

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
)

// Disambiguator annotates entities with an identifier and language. It
// returns a new slice; entities it cannot resolve are returned unchanged.
type Disambiguator interface {
	Disambiguate(ctx context.Context, entities []mention.Entity, tokens []mention.Token) ([]mention.Entity, error)
}

// Nop leaves every entity unresolved.
type Nop struct{}

// Disambiguate returns a copy of entities.
func (Nop) Disambiguate(_ context.Context, entities []mention.Entity, _ []mention.Token) ([]mention.Entity, error) {
	out := make([]mention.Entity, len(entities))
	copy(out, entities)
	return out, nil
}

// Entry is one software record of a knowledge base file.
type Entry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Lang    string   `yaml:"lang,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// KnowledgeBase is a static name → identifier table. Names and aliases
// are matched on their normalized form.
type KnowledgeBase struct {
	entries map[string]Entry  // id -> entry
	index   map[string]string // normalized name or alias -> id
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		entries: make(map[string]Entry),
		index:   make(map[string]string),
	}
}

// LoadFromYAML reads a knowledge base file.
//
// Expected format:
//
//	software:
//	  - id: Q216296
//	    name: SPSS
//	    lang: en
//	    aliases: [SPSS Statistics, IBM SPSS]
func LoadFromYAML(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Software []Entry `yaml:"software"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}

	kb := NewKnowledgeBase()
	for i, e := range file.Software {
		if err := kb.Add(e); err != nil {
			return nil, fmt.Errorf("knowledge base %s entry %d: %w", path, i, err)
		}
	}
	return kb, nil
}

// Add registers an entry. The first entry claiming a name or alias keeps
// it.
func (kb *KnowledgeBase) Add(e Entry) error {
	if e.ID == "" || normalize.Name(e.Name) == "" {
		return fmt.Errorf("%w: entry needs an id and a name", internalerr.ErrInvalidInput)
	}
	kb.entries[e.ID] = e

	for _, n := range append([]string{e.Name}, e.Aliases...) {
		key := normalize.Name(n)
		if key == "" {
			continue
		}
		if _, taken := kb.index[key]; !taken {
			kb.index[key] = e.ID
		}
	}
	return nil
}

// Lookup resolves a raw name.
func (kb *KnowledgeBase) Lookup(name string) (Entry, bool) {
	if kb == nil {
		return Entry{}, false
	}
	id, ok := kb.index[normalize.Name(name)]
	if !ok {
		return Entry{}, false
	}
	return kb.entries[id], true
}

// Len returns the number of entries.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.entries)
}

// Entries returns all entries sorted by id.
func (kb *KnowledgeBase) Entries() []Entry {
	out := make([]Entry, 0, kb.Len())
	if kb == nil {
		return out
	}
	for _, e := range kb.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Disambiguate sets the knowledge of every unresolved entity whose name is
// known. Existing identifiers are kept.
func (kb *KnowledgeBase) Disambiguate(ctx context.Context, entities []mention.Entity, _ []mention.Token) ([]mention.Entity, error) {
	out := make([]mention.Entity, len(entities))
	for i, e := range entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.Clone()
		if !e.Knowledge.Empty() {
			continue
		}
		if entry, ok := kb.Lookup(e.Name.Raw); ok {
			out[i].Knowledge = mention.Knowledge{ID: entry.ID, Lang: entry.Lang}
		}
	}
	return out, nil
}
