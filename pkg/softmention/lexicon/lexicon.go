// Package lexicon holds the term rarity table used to decide whether an
// unlabeled occurrence of a software name is worth propagating.
package lexicon

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/softmention/pkg/softmention/normalize"
)

// Table maps normalized terms to a non-negative rarity weight (an IDF-like
// score: common words are close to 0, rare names are large). Lookup is by
// normalized name, so "SPSS" and "spss" share a weight. The table is
// read-only once loaded.
type Table struct {
	weights map[string]float64
}

// Entry is one term of the YAML file.
type Entry struct {
	Term   string  `yaml:"term"`
	Weight float64 `yaml:"weight"`
}

type file struct {
	Terms []Entry `yaml:"terms"`
}

// New creates an empty table.
func New() *Table {
	return &Table{weights: make(map[string]float64)}
}

// LoadFromYAML loads rarity weights from a YAML file.
//
// Expected format:
//
//	terms:
//	  - term: SPSS
//	    weight: 9.21
//	  - term: software
//	    weight: 0.0004
//
// Negative weights are rejected.
func LoadFromYAML(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	t := New()
	for _, e := range f.Terms {
		if e.Weight < 0 {
			return nil, fmt.Errorf("term %q: negative weight %v", e.Term, e.Weight)
		}
		t.Set(e.Term, e.Weight)
	}
	return t, nil
}

// WriteYAML writes the table in the LoadFromYAML format, terms sorted.
func (t *Table) WriteYAML(path string) error {
	data, err := yaml.Marshal(file{Terms: t.Entries()})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Set assigns a weight to term. Negative weights are clamped to 0.
func (t *Table) Set(term string, weight float64) {
	key := normalize.Name(term)
	if key == "" {
		return
	}
	if weight < 0 {
		weight = 0
	}
	t.weights[key] = weight
}

// Weight returns the rarity of term, or 0 when the term is unknown.
// A nil table knows nothing.
func (t *Table) Weight(term string) float64 {
	if t == nil {
		return 0
	}
	return t.weights[normalize.Name(term)]
}

// Has reports whether term has an explicit weight.
func (t *Table) Has(term string) bool {
	if t == nil {
		return false
	}
	_, ok := t.weights[normalize.Name(term)]
	return ok
}

// Len returns the number of terms.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.weights)
}

// Entries returns all terms sorted alphabetically.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.weights))
	for term, w := range t.weights {
		out = append(out, Entry{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
