// Package checkpoint persists canonical records incrementally and finds the
// point a previous run stopped at.
package checkpoint

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/gamemeta/pkg/games"
)

// Store is an append-oriented record store.
type Store interface {
	// Exists reports whether the store already holds output from a run.
	Exists() bool
	// LastName returns the last non-empty name in the store, or "".
	LastName(ctx context.Context) (string, error)
	// Append adds records after the existing ones.
	Append(ctx context.Context, records []games.Record) error
	// Create replaces the store contents with records.
	Create(ctx context.Context, records []games.Record) error
	// Records returns every stored record in write order.
	Records(ctx context.Context) ([]games.Record, error)
	// Close releases the store.
	Close() error
}

// OpenStore opens the store at path, choosing SQLite for .db, .sqlite and
// .sqlite3 paths and CSV otherwise.
func OpenStore(path string) (Store, error) {
	if IsSQLitePath(path) {
		return OpenSQLite(path)
	}
	return NewCSVStore(path), nil
}

// IsSQLitePath reports whether path names a SQLite store.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
