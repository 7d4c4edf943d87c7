// Package storetest holds the behavior every store.Store implementation
// must show. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) store.Store

func entity(raw string, start int) mention.Entity {
	return mention.NewEntity(mention.Component{
		Kind: mention.KindSoftware,
		Raw:  raw,
		Span: mention.Span{Start: start, End: start + len(raw)},
	})
}

// Run exercises st against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("Upsert and get", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		e := entity("SPSS", 10)
		e.SetComponent(mention.Component{Kind: mention.KindVersion, Raw: "v22", Span: mention.Span{Start: 15, End: 18}})
		e.Knowledge = mention.Knowledge{ID: "Q216296", Lang: "en"}
		e.Refs = []mention.BiblioRef{{RefKey: 2, Raw: "[3]", Span: mention.Span{Start: 19, End: 22}}}

		doc := store.NewDoc("01HZX0000000000000000000A1", "papers/a.txt", "Paper A",
			[]mention.Entity{e, entity("R", 40)})
		saved, err := st.UpsertDoc(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, saved.ID)
		assert.False(t, saved.ProcessedAt.IsZero())
		require.Len(t, saved.Mentions, 2)
		for _, m := range saved.Mentions {
			assert.NotEmpty(t, m.ID)
			assert.Equal(t, doc.ID, m.DocID)
		}

		got, err := st.GetDoc(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "papers/a.txt", got.Source)
		assert.Equal(t, "Paper A", got.Title)
		require.Len(t, got.Mentions, 2)
		assert.Equal(t, "spss", got.Mentions[0].Name)
		assert.Equal(t, mention.ToRecord(e), got.Mentions[0].Record)
		assert.Equal(t, "r", got.Mentions[1].Name)
	})

	t.Run("Missing doc", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		_, err := st.GetDoc(ctx, "nope")
		assert.ErrorIs(t, err, internalerr.ErrNotFound)

		_, found, err := st.GetDocBySource(ctx, "nope.txt")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Same source replaces mentions and keeps id", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		first := store.NewDoc("01HZX0000000000000000000B1", "b.txt", "", []mention.Entity{entity("SPSS", 0), entity("R", 9)})
		_, err := st.UpsertDoc(ctx, first)
		require.NoError(t, err)

		second := store.NewDoc("01HZX0000000000000000000B2", "b.txt", "", []mention.Entity{entity("ImageJ", 3)})
		saved, err := st.UpsertDoc(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, first.ID, saved.ID)
		assert.Equal(t, "01HZX0000000000000000000B2", second.ID, "input is not modified")

		got, found, err := st.GetDocBySource(ctx, "b.txt")
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, got.Mentions, 1)
		assert.Equal(t, "imagej", got.Mentions[0].Name)

		stats, err := st.NameStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Docs)
		assert.Equal(t, map[string]int64{"imagej": 1}, stats.DF)
	})

	t.Run("Document frequencies", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		docs := []store.Doc{
			store.NewDoc("01HZX0000000000000000000C1", "c1.txt", "", []mention.Entity{entity("SPSS", 0), entity("spss", 20), entity("R", 30)}),
			store.NewDoc("01HZX0000000000000000000C2", "c2.txt", "", []mention.Entity{entity("R", 0)}),
			store.NewDoc("01HZX0000000000000000000C3", "c3.txt", "", nil),
		}
		for _, d := range docs {
			_, err := st.UpsertDoc(ctx, d)
			require.NoError(t, err)
		}

		stats, err := st.NameStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Docs)
		assert.Equal(t, map[string]int64{"spss": 1, "r": 2}, stats.DF)

		df, err := st.NameDF(ctx, "R")
		require.NoError(t, err)
		assert.Equal(t, int64(2), df)

		df, err = st.NameDF(ctx, "Excel")
		require.NoError(t, err)
		assert.Equal(t, int64(0), df)
	})

	t.Run("Mentions by name", func(t *testing.T) {
		st := newStore(t)
		defer st.Close()

		old := store.NewDoc("01HZX0000000000000000000D1", "old.txt", "", []mention.Entity{entity("R", 5)})
		old.ProcessedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		recent := store.NewDoc("01HZX0000000000000000000D2", "new.txt", "", []mention.Entity{entity("R", 50), entity("R", 7), entity("SPSS", 1)})
		recent.ProcessedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		for _, d := range []store.Doc{old, recent} {
			_, err := st.UpsertDoc(ctx, d)
			require.NoError(t, err)
		}

		got, err := st.MentionsByName(ctx, "r", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, recent.ID, got[0].DocID)
		assert.Equal(t, 7, got[0].Record.SoftwareName.OffsetStart)
		assert.Equal(t, 50, got[1].Record.SoftwareName.OffsetStart)
		assert.Equal(t, old.ID, got[2].DocID)

		limited, err := st.MentionsByName(ctx, "R", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}
