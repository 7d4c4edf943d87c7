package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/store"
	"github.com/cognicore/softmention/pkg/softmention/store/storetest"
)

func open(t *testing.T, path string) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	return st
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return open(t, filepath.Join(t.TempDir(), "test.db"))
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	st := open(t, path)
	name := mention.NewEntity(mention.Component{Kind: mention.KindSoftware, Raw: "ImageJ", Span: mention.Span{Start: 0, End: 6}})
	doc := store.NewDoc("01HZX0000000000000000000E1", "e.txt", "", []mention.Entity{name})
	_, err := st.UpsertDoc(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st = open(t, path)
	defer st.Close()

	got, found, err := st.GetDocBySource(ctx, "e.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Mentions[0].ID, got.Mentions[0].ID)

	df, err := st.NameDF(ctx, "imagej")
	require.NoError(t, err)
	assert.Equal(t, int64(1), df)
}

func TestSQLiteUpsertNeedsIdentity(t *testing.T) {
	st := open(t, filepath.Join(t.TempDir(), "id.db"))
	defer st.Close()

	_, err := st.UpsertDoc(context.Background(), store.Doc{})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestSQLiteDocsWithoutSource(t *testing.T) {
	ctx := context.Background()
	st := open(t, filepath.Join(t.TempDir(), "nosource.db"))
	defer st.Close()

	for _, id := range []string{"01HZX0000000000000000000F1", "01HZX0000000000000000000F2"} {
		_, err := st.UpsertDoc(ctx, store.Doc{ID: id})
		require.NoError(t, err)
	}

	stats, err := st.NameStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Docs)
}

func TestSQLitePragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	st := open(t, filepath.Join(t.TempDir(), "pragmas.db"))
	defer st.Close()
	db := st.(*sqliteStore).db

	conns := make([]*sql.Conn, 3)
	for i := range conns {
		c, err := db.Conn(ctx)
		require.NoError(t, err)
		defer c.Close()
		conns[i] = c
	}
	for i, c := range conns {
		var fk int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk, "connection %d", i)

		var mode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode, "connection %d", i)
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dsn("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dsn("file:a.db?cache=shared"))
}
