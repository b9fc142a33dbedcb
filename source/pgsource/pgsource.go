// Package pgsource reads templates from a PostgreSQL table.
//
// The table needs a text path column, a text contents column and a
// timestamptz modified column:
//
//	CREATE TABLE templates (
//		path     text PRIMARY KEY,
//		contents text NOT NULL,
//		modified timestamptz NOT NULL DEFAULT now()
//	);
package pgsource

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scaffold-io/scaffold/source"
)

// DB is the subset of a pgx connection or pool the source uses.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// DefaultTable is the table used when none is configured.
const DefaultTable = "templates"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Source serves templates stored as rows of a table.
type Source struct {
	db    DB
	table string
}

var _ source.Source = (*Source)(nil)

// New returns a Source over table. An empty table name selects
// DefaultTable.
func New(db DB, table string) (*Source, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Source{db: db, table: table}, nil
}

// Connect opens a connection to the database at url and returns a Source
// over table, along with the connection for the caller to close.
func Connect(ctx context.Context, url, table string) (*Source, *pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s, err := New(conn, table)
	if err != nil {
		conn.Close(ctx)
		return nil, nil, err
	}
	return s, conn, nil
}

func (s *Source) IsReadable(ctx context.Context, path string) bool {
	_, err := s.LastModified(ctx, path)
	return err == nil
}

func (s *Source) LastModified(ctx context.Context, path string) (time.Time, error) {
	clean, err := source.Clean(path)
	if err != nil {
		return time.Time{}, err
	}
	var modified time.Time
	query := fmt.Sprintf("SELECT modified FROM %s WHERE path = $1", s.table)
	if err := s.db.QueryRow(ctx, query, clean).Scan(&modified); err != nil {
		return time.Time{}, s.wrap(path, err)
	}
	return modified, nil
}

func (s *Source) Contents(ctx context.Context, path string) (string, error) {
	clean, err := source.Clean(path)
	if err != nil {
		return "", err
	}
	var contents string
	query := fmt.Sprintf("SELECT contents FROM %s WHERE path = $1", s.table)
	if err := s.db.QueryRow(ctx, query, clean).Scan(&contents); err != nil {
		return "", s.wrap(path, err)
	}
	return contents, nil
}

func (s *Source) PutContents(ctx context.Context, path, contents string) error {
	clean, err := source.Clean(path)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (path, contents, modified) VALUES ($1, $2, now())
ON CONFLICT (path) DO UPDATE SET contents = EXCLUDED.contents, modified = EXCLUDED.modified`, s.table)
	if _, err := s.db.Exec(ctx, query, clean, contents); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (s *Source) wrap(path string, err error) error {
	if stderrors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", path, source.ErrNotFound)
	}
	return fmt.Errorf("reading %s: %w", path, err)
}
