package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/czapol/multi-agent-playground/store"
)

type DB struct {
	db *sql.DB
}

// NewDB opens the document index at dsn.
func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	// Connect with:
	// - No foreign key constraints, explicit to avoid surprises on upgrades.
	// - busy_timeout so a concurrent indexer does not fail searches.
	// - WAL journal mode to avoid reader/writer locking.
	//
	// With modernc.org/sqlite each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", dsn+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	// Single connection is optimal for local WAL usage.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// The FTS table uses external content so document stays the source of truth;
// triggers keep the index in sync on every write.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS document (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		indexed_ts BIGINT NOT NULL
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS document_fts USING fts5(
		title, content, content='document', content_rowid='id', tokenize='porter unicode61'
	)`,
	`CREATE TRIGGER IF NOT EXISTS document_ai AFTER INSERT ON document BEGIN
		INSERT INTO document_fts(rowid, title, content) VALUES (new.id, new.title, new.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS document_ad AFTER DELETE ON document BEGIN
		INSERT INTO document_fts(document_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS document_au AFTER UPDATE ON document BEGIN
		INSERT INTO document_fts(document_fts, rowid, title, content) VALUES ('delete', old.id, old.title, old.content);
		INSERT INTO document_fts(rowid, title, content) VALUES (new.id, new.title, new.content);
	END`,
}

func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer tx.Rollback()

	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply migration")
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit migration")
}

func (d *DB) UpsertDocument(ctx context.Context, doc *store.Document) (*store.Document, error) {
	stmt := `
		INSERT INTO document (path, title, content, indexed_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			indexed_ts = excluded.indexed_ts
		RETURNING id`
	out := *doc
	if err := d.db.QueryRowContext(ctx, stmt, doc.Path, doc.Title, doc.Content, doc.IndexedTs).Scan(&out.ID); err != nil {
		return nil, errors.Wrapf(err, "failed to upsert document %s", doc.Path)
	}
	return &out, nil
}

// SearchDocuments ranks with bm25, where lower is better; Rank is negated
// so callers can treat higher as better.
func (d *DB) SearchDocuments(ctx context.Context, find *store.FindDocument) ([]*store.DocumentHit, error) {
	match := store.MatchExpression(find.Query)
	if match == "" {
		return nil, nil
	}
	limit := find.Limit
	if limit <= 0 {
		limit = store.DefaultSearchLimit
	}

	query := `
		SELECT d.id, d.path, d.title,
			snippet(document_fts, 1, '[', ']', '...', 24),
			bm25(document_fts)
		FROM document_fts
		JOIN document d ON d.id = document_fts.rowid
		WHERE document_fts MATCH ?
		ORDER BY bm25(document_fts)
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, match, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search documents")
	}
	defer rows.Close()

	var hits []*store.DocumentHit
	for rows.Next() {
		hit := &store.DocumentHit{}
		var score float64
		if err := rows.Scan(&hit.ID, &hit.Path, &hit.Title, &hit.Snippet, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan document hit")
		}
		hit.Rank = -score
		hits = append(hits, hit)
	}
	return hits, errors.Wrap(rows.Err(), "failed to iterate document hits")
}

func (d *DB) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count documents")
	}
	return n, nil
}

func (d *DB) DeleteDocument(ctx context.Context, path string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM document WHERE path = ?", path)
	return errors.Wrapf(err, "failed to delete document %s", path)
}
