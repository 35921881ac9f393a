package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDocumentStore persists the document in a single-row table and keeps
// every accepted text as a revision. The document table is constrained to
// one row; history grows in revisions.
type SQLiteDocumentStore struct {
	db      *sql.DB
	stmtGet *sql.Stmt
	stmtPut *sql.Stmt
	stmtRev *sql.Stmt
}

func OpenSQLiteDocumentStore(path string) (*SQLiteDocumentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// Interactive store: durable writes, no reader stalls.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS document (
		id      INTEGER PRIMARY KEY CHECK (id = 1),
		text    BLOB NOT NULL,
		updated INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revisions (
		id      TEXT PRIMARY KEY,
		text    BLOB NOT NULL,
		created INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_created ON revisions(created);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteDocumentStore{db: db}
	if err := s.prepare(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteDocumentStore) prepare() error {
	var err error
	s.stmtGet, err = s.db.Prepare(`SELECT text FROM document WHERE id = 1`)
	if err != nil {
		return err
	}
	s.stmtPut, err = s.db.Prepare(`
		INSERT INTO document (id, text, updated) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, updated = excluded.updated
	`)
	if err != nil {
		return err
	}
	s.stmtRev, err = s.db.Prepare(`INSERT INTO revisions (id, text, created) VALUES (?, ?, ?)`)
	return err
}

func (s *SQLiteDocumentStore) CurrentText(ctx context.Context) ([]byte, error) {
	var text []byte
	err := s.stmtGet.QueryRowContext(ctx).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return text, nil
}

// SetText replaces the document and records a revision in one transaction.
func (s *SQLiteDocumentStore) SetText(ctx context.Context, text []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := time.Now().UnixNano()
	if _, err := tx.StmtContext(ctx, s.stmtPut).Exec(text, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update document: %w", err)
	}
	if _, err := tx.StmtContext(ctx, s.stmtRev).Exec(uuid.NewString(), text, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert revision: %w", err)
	}
	return tx.Commit()
}

// Revisions returns the newest revisions first. limit <= 0 returns all.
func (s *SQLiteDocumentStore) Revisions(ctx context.Context, limit int) ([]Revision, error) {
	q := `SELECT id, text, created FROM revisions ORDER BY created DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select revisions: %w", err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		var createdNano int64
		if err := rows.Scan(&r.ID, &r.Text, &createdNano); err != nil {
			return nil, err
		}
		r.Created = time.Unix(0, createdNano)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (s *SQLiteDocumentStore) Close() error {
	if s.stmtGet != nil {
		_ = s.stmtGet.Close()
	}
	if s.stmtPut != nil {
		_ = s.stmtPut.Close()
	}
	if s.stmtRev != nil {
		_ = s.stmtRev.Close()
	}
	return s.db.Close()
}

var (
	_ DocumentStore = (*SQLiteDocumentStore)(nil)
	_ History       = (*SQLiteDocumentStore)(nil)
)
