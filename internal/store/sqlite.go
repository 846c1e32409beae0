package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valpere/bookflow/internal"
)

// SQLite is the default Store, kept in a single database file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		book TEXT NOT NULL,
		chapter TEXT NOT NULL,
		content TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	);

	-- ratings keeps every score; the library averages them per book
	CREATE TABLE IF NOT EXISTS ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		book TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_versions_owner ON versions(owner, book, chapter);
	CREATE INDEX IF NOT EXISTS idx_ratings_owner ON ratings(owner, book);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Save(ctx context.Context, owner, book, chapter, content string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO versions (id, owner, book, chapter, content, schema_version, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, schema_version = excluded.schema_version, updated_at = excluded.updated_at`,
		Key(owner, book, chapter), owner, book, chapter, content, SchemaVersion, time.Now().UTC())
	return err
}

func (s *SQLite) Get(ctx context.Context, owner, book, chapter string) (internal.Version, error) {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return internal.Version{}, err
	}

	v := internal.Version{Owner: owner, Book: book, Chapter: chapter}
	err = s.db.QueryRowContext(ctx,
		`SELECT content, updated_at FROM versions WHERE id = ?`,
		Key(owner, book, chapter)).Scan(&v.Content, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return internal.Version{}, ErrNotFound
	}
	if err != nil {
		return internal.Version{}, err
	}
	return v, nil
}

func (s *SQLite) List(ctx context.Context, owner string) ([]internal.Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner, book, chapter, content, updated_at FROM versions WHERE owner = ? ORDER BY book, chapter`,
		Normalize(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []internal.Version{}
	for rows.Next() {
		var v internal.Version
		if err := rows.Scan(&v.Owner, &v.Book, &v.Chapter, &v.Content, &v.UpdatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, owner, book, chapter string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE id = ?`, Key(owner, book, chapter))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Rate(ctx context.Context, owner, book string, score int) error {
	if err := validateRating(score); err != nil {
		return err
	}
	owner, book = Normalize(owner), Normalize(book)
	if owner == "" || book == "" {
		return ErrEmptyField
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (owner, book, score, created_at) VALUES (?, ?, ?, ?)`,
		owner, book, score, time.Now().UTC())
	return err
}

func (s *SQLite) Ratings(ctx context.Context, owner string) (map[string][]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book, score FROM ratings WHERE owner = ? ORDER BY id`, Normalize(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := map[string][]int{}
	for rows.Next() {
		var book string
		var score int
		if err := rows.Scan(&book, &score); err != nil {
			return nil, err
		}
		ratings[book] = append(ratings[book], score)
	}
	return ratings, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
