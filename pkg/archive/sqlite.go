package archive

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"thoreinstein.com/specforge/pkg/errors"
)

// Summary is one row of the browse index.
type Summary struct {
	ID        string
	Scope     string
	CreatedAt time.Time
	TurnCount int
	SpecPath  string
}

// Index is the SQLite browse/search index over archived sessions. The JSONL
// log stays the source of truth; the index only answers list and search
// queries without replaying the whole log.
type Index struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id          TEXT PRIMARY KEY,
	scope       TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	created_ts  INTEGER NOT NULL,
	turn_count  INTEGER NOT NULL,
	spec_path   TEXT NOT NULL DEFAULT '',
	search_blob TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_ts DESC);
CREATE INDEX IF NOT EXISTS idx_transcripts_scope ON transcripts(scope);
`

// OpenIndex opens (creating if needed) the index database.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewArchiveErrorWithCause("index", "",
			"unable to create index directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewArchiveErrorWithCause("index", "",
			"unable to open index database", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, errors.NewArchiveErrorWithCause("index", "",
			"unable to initialize index schema", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (i *Index) Close() error { return i.db.Close() }

// Upsert inserts or refreshes the index row for a record.
func (i *Index) Upsert(record *Record) error {
	_, err := i.db.Exec(`
		INSERT INTO transcripts (id, scope, created_at, created_ts, turn_count, spec_path, search_blob)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scope = excluded.scope,
			turn_count = excluded.turn_count,
			spec_path = excluded.spec_path,
			search_blob = excluded.search_blob`,
		record.ID,
		record.Scope,
		record.CreatedAt.UTC().Format(time.RFC3339),
		record.CreatedAt.UTC().Unix(),
		record.TurnCount(),
		record.SpecPath,
		record.SearchableBlob(),
	)
	if err != nil {
		return errors.NewArchiveErrorWithCause("index", record.ID,
			"unable to index record", err)
	}
	return nil
}

// List returns the newest sessions first, optionally filtered by scope.
func (i *Index) List(limit int, scope string) ([]Summary, error) {
	query := `SELECT id, scope, created_at, turn_count, spec_path FROM transcripts`
	var args []any
	if scope != "" {
		query += ` WHERE scope = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY created_ts DESC LIMIT ?`
	args = append(args, limit)
	return i.querySummaries(query, args...)
}

// Search returns sessions whose searchable text contains the query,
// newest first.
func (i *Index) Search(needle string, limit int, scope string) ([]Summary, error) {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return nil, nil
	}
	query := `SELECT id, scope, created_at, turn_count, spec_path FROM transcripts
		WHERE search_blob LIKE '%' || ? || '%'`
	args := []any{needle}
	if scope != "" {
		query += ` AND scope = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY created_ts DESC LIMIT ?`
	args = append(args, limit)
	return i.querySummaries(query, args...)
}

func (i *Index) querySummaries(query string, args ...any) ([]Summary, error) {
	rows, err := i.db.Query(query, args...)
	if err != nil {
		return nil, errors.NewArchiveErrorWithCause("query", "",
			"index query failed", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var summary Summary
		var createdAt string
		if err := rows.Scan(&summary.ID, &summary.Scope, &createdAt,
			&summary.TurnCount, &summary.SpecPath); err != nil {
			return nil, errors.NewArchiveErrorWithCause("query", "",
				"index row scan failed", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			summary.CreatedAt = ts
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewArchiveErrorWithCause("query", "",
			"index iteration failed", err)
	}
	return summaries, nil
}
