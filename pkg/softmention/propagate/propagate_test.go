package propagate

import (
	"testing"

	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(raw string, start int) mention.Entity {
	return mention.NewEntity(mention.Component{
		Kind: mention.KindSoftware,
		Raw:  raw,
		Span: mention.Span{Start: start, End: start + len(raw)},
	})
}

func run(text string, entities []mention.Entity, rarity *lexicon.Table) []mention.Entity {
	tok := ingest.NewTokenizer()
	tokens := tok.Tokenize(text)
	idx := profile.Build(entities, tokens, tok, rarity)
	return Propagate(tokens, entities, idx)
}

func TestAccept(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{-1, true},
		{0, true},
		{0.0005, false},
		{0.001, false},
		{0.0011, true},
		{0.002, true},
		{12.5, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Accept(tt.score), "score %v", tt.score)
	}
}

func TestPropagate(t *testing.T) {
	text := "SPSS was used. Then SPSS again."

	t.Run("Unlabeled occurrence becomes an entity", func(t *testing.T) {
		src := named("SPSS", 0)
		src.Knowledge = mention.Knowledge{ID: "Q216296", Lang: "en"}

		out := run(text, []mention.Entity{src}, nil)
		require.Len(t, out, 2)

		p := out[1]
		assert.True(t, p.Propagated)
		assert.Equal(t, "SPSS", p.Name.Raw)
		assert.Equal(t, mention.KindSoftware, p.Name.Kind)
		assert.Equal(t, mention.Span{Start: 20, End: 24}, p.Name.Span)
		assert.Equal(t, src.Knowledge, p.Knowledge)
		require.Len(t, p.Name.Tokens, 1)
		assert.Equal(t, 20, p.Name.Tokens[0].Offset)
	})

	t.Run("Input slice is not modified", func(t *testing.T) {
		in := []mention.Entity{named("SPSS", 0)}
		_ = run(text, in, nil)
		assert.Len(t, in, 1)
		assert.False(t, in[0].Propagated)
	})

	t.Run("Score at threshold is rejected", func(t *testing.T) {
		rarity := lexicon.New()
		rarity.Set("SPSS", 0.0005) // two occurrences: score 0.001
		out := run(text, []mention.Entity{named("SPSS", 0)}, rarity)
		assert.Len(t, out, 1)
	})

	t.Run("Score above threshold is accepted", func(t *testing.T) {
		rarity := lexicon.New()
		rarity.Set("SPSS", 0.001) // score 0.002
		out := run(text, []mention.Entity{named("SPSS", 0)}, rarity)
		assert.Len(t, out, 2)
	})

	t.Run("Zero weight is accepted", func(t *testing.T) {
		rarity := lexicon.New()
		rarity.Set("SPSS", 0)
		out := run(text, []mention.Entity{named("SPSS", 0)}, rarity)
		assert.Len(t, out, 2)
	})
}

func TestPropagateNoDuplicates(t *testing.T) {
	text := "SPSS was used. Then SPSS again."
	in := []mention.Entity{named("SPSS", 0), named("SPSS", 20)}
	out := run(text, in, nil)
	assert.Len(t, out, 2)
	for _, e := range out {
		assert.False(t, e.Propagated)
	}
}

func TestPropagateKeepsOverlappingNames(t *testing.T) {
	text := "SPSS Statistics is fine. SPSS Statistics too."
	in := []mention.Entity{named("SPSS", 0), named("SPSS Statistics", 25)}
	out := run(text, in, nil)
	require.Len(t, out, 3)

	p := out[2]
	assert.True(t, p.Propagated)
	assert.Equal(t, "SPSS Statistics", p.Name.Raw)
	assert.Equal(t, mention.Span{Start: 0, End: 15}, p.Name.Span)
	assert.Equal(t, mention.Span{Start: 0, End: 4}, out[0].Name.Span, "labeled name is left alone")
}

func TestPropagateKnowledgeFromIdenticalRawName(t *testing.T) {
	text := "R and R again and R."
	first := named("R", 0)
	second := named("R", 6)
	second.Knowledge = mention.Knowledge{ID: "Q206904", Lang: "en"}

	out := run(text, []mention.Entity{first, second}, nil)
	require.Len(t, out, 3)
	assert.True(t, out[2].Propagated)
	assert.Equal(t, 18, out[2].Start())
	assert.Equal(t, "Q206904", out[2].Knowledge.ID)
}

func TestPropagateNoIndex(t *testing.T) {
	in := []mention.Entity{named("SPSS", 0)}
	out := Propagate(nil, in, nil)
	assert.Len(t, out, 1)
}
