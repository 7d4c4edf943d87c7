package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/normalize"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

// timeLayout sorts lexically in time order for UTC values.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore keeps documents and their mention records in one SQLite file.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// dsn adds the connection pragmas to path. They are applied by the driver
// to every pooled connection: WAL lets readers work while a batch writes,
// and mentions and doc_names cascade with their document.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates the schema on first open.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	source TEXT UNIQUE,
	title TEXT,
	processed_at TEXT
);

CREATE TABLE IF NOT EXISTS mentions (
	id TEXT PRIMARY KEY,
	doc_id TEXT NOT NULL,
	name TEXT NOT NULL,
	offset_start INTEGER NOT NULL,
	record TEXT NOT NULL,
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_mentions_name ON mentions(name);

CREATE TABLE IF NOT EXISTS doc_names (
	doc_id TEXT NOT NULL,
	name TEXT NOT NULL,
	UNIQUE(doc_id, name),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertDoc inserts or updates a document. A document whose source is
// already stored keeps its ID and has its mentions replaced.
func (s *sqliteStore) UpsertDoc(ctx context.Context, d store.Doc) (store.Doc, error) {
	if d.ProcessedAt.IsZero() {
		d.ProcessedAt = time.Now().UTC()
	}
	d.Mentions = append([]store.Mention(nil), d.Mentions...)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Doc{}, err
	}
	defer tx.Rollback()

	if d.Source != "" {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT id FROM docs WHERE source = ?`, d.Source).Scan(&existing)
		switch {
		case err == nil:
			d.ID = existing
		case !errors.Is(err, sql.ErrNoRows):
			return store.Doc{}, err
		}
	}
	if d.ID == "" {
		return store.Doc{}, fmt.Errorf("%w: document needs an id or a stored source", internalerr.ErrInvalidInput)
	}

	const stmt = `
INSERT INTO docs (id, source, title, processed_at)
VALUES (?, NULLIF(?, ''), ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	processed_at=excluded.processed_at;
`
	if _, err := tx.ExecContext(ctx, stmt, d.ID, d.Source, d.Title, d.ProcessedAt.UTC().Format(timeLayout)); err != nil {
		return store.Doc{}, err
	}

	for i := range d.Mentions {
		d.Mentions[i].DocID = d.ID
		if d.Mentions[i].ID == "" {
			d.Mentions[i].ID = uuid.NewString()
		}
	}
	if err := replaceMentions(ctx, tx, d.ID, d.Mentions); err != nil {
		return store.Doc{}, err
	}
	if err := replaceDocNames(ctx, tx, d.ID, d.Names()); err != nil {
		return store.Doc{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Doc{}, err
	}
	return d, nil
}

func replaceMentions(ctx context.Context, tx *sql.Tx, docID string, mentions []store.Mention) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM mentions WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(mentions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mentions (id, doc_id, name, offset_start, record) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range mentions {
		record, err := json.Marshal(m.Record)
		if err != nil {
			return fmt.Errorf("encode mention %s: %w", m.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, m.ID, docID, m.Name, m.Record.SoftwareName.OffsetStart, string(record)); err != nil {
			return err
		}
	}
	return nil
}

func replaceDocNames(ctx context.Context, tx *sql.Tx, docID string, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_names WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_names (doc_id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, docID, name); err != nil {
			return err
		}
	}
	return nil
}

// GetDoc loads a document and its mentions in offset order.
func (s *sqliteStore) GetDoc(ctx context.Context, id string) (store.Doc, error) {
	return s.loadDoc(ctx, id)
}

// GetDocBySource looks a document up by the file or URL it came from.
func (s *sqliteStore) GetDocBySource(ctx context.Context, source string) (store.Doc, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM docs WHERE source = ?`, source).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, false, nil
	}
	if err != nil {
		return store.Doc{}, false, err
	}

	doc, err := s.loadDoc(ctx, id)
	if err != nil {
		return store.Doc{}, false, err
	}
	return doc, true, nil
}

// MentionsByName returns mentions of a software name, most recently
// processed documents first.
func (s *sqliteStore) MentionsByName(ctx context.Context, name string, limit int) ([]store.Mention, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT m.id, m.doc_id, m.name, m.record
FROM mentions m
JOIN docs d ON d.id = m.doc_id
WHERE m.name = ?
ORDER BY d.processed_at DESC, m.doc_id, m.offset_start
LIMIT ?;
`, normalize.Name(name), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMentions(rows)
}

// NameDF returns the number of documents mentioning name
func (s *sqliteStore) NameDF(ctx context.Context, name string) (int64, error) {
	var df int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doc_names WHERE name=?`, normalize.Name(name)).Scan(&df)
	return df, err
}

// NameStats counts documents and per-name document frequencies
func (s *sqliteStore) NameStats(ctx context.Context) (store.NameStats, error) {
	stats := store.NameStats{DF: make(map[string]int64)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&stats.Docs); err != nil {
		return store.NameStats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, COUNT(*) FROM doc_names GROUP BY name`)
	if err != nil {
		return store.NameStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			df   int64
		)
		if err := rows.Scan(&name, &df); err != nil {
			return store.NameStats{}, err
		}
		stats.DF[name] = df
	}
	return stats, rows.Err()
}

func (s *sqliteStore) loadDoc(ctx context.Context, id string) (store.Doc, error) {
	var (
		doc       store.Doc
		source    sql.NullString
		title     sql.NullString
		processed sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, title, processed_at
FROM docs
WHERE id = ?;
`, id).Scan(&doc.ID, &source, &title, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, fmt.Errorf("doc %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Doc{}, err
	}
	doc.Source = source.String
	doc.Title = title.String

	if processed.String != "" {
		if parsed, perr := time.Parse(timeLayout, processed.String); perr == nil {
			doc.ProcessedAt = parsed
		}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, doc_id, name, record
FROM mentions
WHERE doc_id = ?
ORDER BY offset_start, id;
`, id)
	if err != nil {
		return store.Doc{}, err
	}
	defer rows.Close()

	doc.Mentions, err = scanMentions(rows)
	if err != nil {
		return store.Doc{}, err
	}
	return doc, nil
}

func scanMentions(rows *sql.Rows) ([]store.Mention, error) {
	var out []store.Mention
	for rows.Next() {
		var (
			m      store.Mention
			record string
		)
		if err := rows.Scan(&m.ID, &m.DocID, &m.Name, &record); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(record), &m.Record); err != nil {
			return nil, fmt.Errorf("decode mention %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
