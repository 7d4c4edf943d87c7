package lexicon

import "math"

// FromCounts builds a rarity table from a total document count and per-name
// document frequencies. Weights are log(N / df); a name present in every
// document weighs 0.
func FromCounts(total int64, df map[string]int64) *Table {
	t := New()
	for name, n := range df {
		if n <= 0 {
			continue
		}
		t.Set(name, idf(total, n))
	}
	return t
}

func idf(total, df int64) float64 {
	if total <= 0 || df <= 0 {
		return 0
	}
	v := math.Log(float64(total) / float64(df))
	if v < 0 {
		return 0
	}
	return v
}
