package profile

import (
	"testing"

	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(raw string, start int) mention.Entity {
	return mention.NewEntity(mention.Component{
		Kind: mention.KindSoftware,
		Raw:  raw,
		Span: mention.Span{Start: start, End: start + len(raw)},
	})
}

func TestBuild(t *testing.T) {
	tok := ingest.NewTokenizer()
	text := "SPSS was used. Then SPSS and R. Also SPSS."
	tokens := tok.Tokenize(text)

	rarity := lexicon.New()
	rarity.Set("SPSS", 0.5)

	entities := []mention.Entity{entity("SPSS", 0), entity("SPSS", 20), entity("R", 29)}
	idx := Build(entities, tokens, tok, rarity)

	t.Run("Matcher holds distinct names", func(t *testing.T) {
		assert.Equal(t, []string{"SPSS", "R"}, idx.Matcher.Terms())
	})

	t.Run("Frequencies count every occurrence", func(t *testing.T) {
		assert.Equal(t, 3, idx.Frequencies["SPSS"])
		assert.Equal(t, 1, idx.Frequencies["R"])
		assert.Equal(t, 1, idx.Frequency("never-counted"))
	})

	t.Run("Profiles collect occupied spans and weight", func(t *testing.T) {
		p := idx.Profiles["SPSS"]
		require.Len(t, p.Occupied, 2)
		assert.Equal(t, 0.5, p.Weight)
		assert.Equal(t, 0.0, idx.Profiles["R"].Weight, "absent terms weigh 0")
	})

	t.Run("Score", func(t *testing.T) {
		s, ok := idx.Score("SPSS")
		assert.True(t, ok)
		assert.InDelta(t, 1.5, s, 1e-12)

		_, ok = idx.Score("Excel")
		assert.False(t, ok)
	})

	t.Run("Occupied compares start offsets", func(t *testing.T) {
		assert.True(t, idx.Occupied("SPSS", 20))
		assert.False(t, idx.Occupied("SPSS", 37))
		assert.False(t, idx.Occupied("R", 0))
	})
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil, nil, nil, nil)
	assert.Equal(t, 0, idx.Matcher.Len())
	assert.Empty(t, idx.Frequencies)
	assert.Empty(t, idx.Profiles)
}
