package checkpoint

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
)

const recordsTable = "records"

// SQLiteStore keeps records in a SQLite table with one TEXT column per
// games.Columns entry, ordered by an autoincrement sequence.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "store", path, err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.WrapResource("configure", "store", path, err)
		}
	}

	s := &SQLiteStore{path: path, db: db}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	cols := make([]string, 0, len(games.Columns)+1)
	cols = append(cols, "seq INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, c := range games.Columns {
		cols = append(cols, c+" TEXT NOT NULL DEFAULT ''")
	}
	ddl := "CREATE TABLE IF NOT EXISTS " + recordsTable + " (" + strings.Join(cols, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.WrapResource("create", "schema", s.path, err)
	}
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Exists reports whether the table holds any record.
func (s *SQLiteStore) Exists() bool {
	var n int
	err := sq.Select("COUNT(*)").From(recordsTable).
		RunWith(s.db).
		QueryRow().
		Scan(&n)
	return err == nil && n > 0
}

// LastName returns the name of the most recently written record that has one.
func (s *SQLiteStore) LastName(ctx context.Context) (string, error) {
	var name string
	err := sq.Select("name").From(recordsTable).
		Where(sq.NotEq{"name": ""}).
		OrderBy("seq DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapResource("query", "store", s.path, err)
	}
	return name, nil
}

// Records returns all records in write order.
func (s *SQLiteStore) Records(ctx context.Context) ([]games.Record, error) {
	rows, err := sq.Select(games.Columns...).From(recordsTable).
		OrderBy("seq").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.WrapResource("query", "store", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	var records []games.Record
	cells := make([]string, len(games.Columns))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.WrapResource("scan", "store", s.path, err)
		}
		r, err := games.ParseRow(games.Columns, cells)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("query", "store", s.path, err)
	}
	return records, nil
}

// Append inserts records in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, records []games.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insert(ctx, tx, records)
	})
}

// Create deletes every record and inserts records in one transaction.
func (s *SQLiteStore) Create(ctx context.Context, records []games.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := sq.Delete(recordsTable).RunWith(tx).ExecContext(ctx); err != nil {
			return err
		}
		return insert(ctx, tx, records)
	})
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("begin", "transaction", s.path, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errors.WrapResource("write", "store", s.path, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapResource("commit", "transaction", s.path, err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, records []games.Record) error {
	if len(records) == 0 {
		return nil
	}
	q := sq.Insert(recordsTable).Columns(games.Columns...)
	for _, r := range records {
		row := r.Row()
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = cell
		}
		q = q.Values(values...)
	}
	_, err := q.RunWith(tx).ExecContext(ctx)
	return err
}
