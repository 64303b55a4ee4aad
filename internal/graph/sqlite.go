package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteTriples is a TripleStore in a single SQLite table
type SQLiteTriples struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) a triple database at path
func OpenSQLiteStore(path, dateGraph string) (*LocalStore, error) {
	ts, err := OpenSQLiteTriples(path)
	if err != nil {
		return nil, err
	}
	return NewLocalStore(ts, dateGraph), nil
}

// OpenSQLiteTriples opens the triple table at path
func OpenSQLiteTriples(path string) (*SQLiteTriples, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrUnavailable, err)
	}
	// one writer keeps inserts serialized
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set busy timeout: %v", ErrUnavailable, err)
	}

	s := &SQLiteTriples{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrUnavailable, err)
	}
	return s, nil
}

func (s *SQLiteTriples) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS triples (
		g        TEXT NOT NULL DEFAULT '',
		s        TEXT NOT NULL,
		p        TEXT NOT NULL,
		o        TEXT NOT NULL,
		o_kind   INTEGER NOT NULL,
		datatype TEXT NOT NULL DEFAULT '',
		lang     TEXT NOT NULL DEFAULT '',
		UNIQUE (g, s, p, o, o_kind, datatype, lang)
	);
	CREATE INDEX IF NOT EXISTS idx_triples_sp ON triples (s, p);
	CREATE INDEX IF NOT EXISTS idx_triples_po ON triples (p, o);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteTriples) Add(ctx context.Context, triples ...Triple) (int, error) {
	if len(triples) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO triples (g, s, p, o, o_kind, datatype, lang)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	added := 0
	for _, t := range triples {
		res, err := stmt.ExecContext(ctx, t.Graph, t.Subject, t.Predicate,
			t.Object.Value, int(t.Object.Kind), t.Object.Datatype, t.Object.Lang)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", t, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

func (s *SQLiteTriples) Match(ctx context.Context, subject, predicate string, object *Term) ([]Triple, error) {
	var (
		where []string
		args  []any
	)
	if subject != "" {
		where = append(where, "s = ?")
		args = append(args, subject)
	}
	if predicate != "" {
		where = append(where, "p = ?")
		args = append(args, predicate)
	}
	if object != nil {
		where = append(where, "o = ?", "o_kind = ?")
		args = append(args, object.Value, int(object.Kind))
	}

	query := "SELECT g, s, p, o, o_kind, datatype, lang FROM triples"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Triple
	for rows.Next() {
		var (
			t    Triple
			kind int
		)
		if err := rows.Scan(&t.Graph, &t.Subject, &t.Predicate, &t.Object.Value, &kind, &t.Object.Datatype, &t.Object.Lang); err != nil {
			return nil, err
		}
		t.Object.Kind = TermKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteTriples) Remove(ctx context.Context, t Triple) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM triples
		WHERE g = ? AND s = ? AND p = ? AND o = ? AND o_kind = ? AND datatype = ? AND lang = ?`,
		t.Graph, t.Subject, t.Predicate, t.Object.Value, int(t.Object.Kind), t.Object.Datatype, t.Object.Lang)
	return err
}

// Count returns the number of stored triples
func (s *SQLiteTriples) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM triples").Scan(&n)
	return n, err
}

func (s *SQLiteTriples) Close() error {
	return s.db.Close()
}
