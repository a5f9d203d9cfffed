package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/relational"
)

// DBFile is the database file name inside the data directory.
const DBFile = "digest.db"

// Every pooled connection gets WAL, a busy timeout and enforced foreign
// keys; cascading deletes depend on the last one.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store is the relational store on an embedded SQLite file.
type Store struct {
	*relational.Store
	path string
}

// NewStore opens dataDir/digest.db, creating the directory, and migrates
// it. An empty dataDir means ~/.digest/data.
func NewStore(ctx context.Context, dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".digest", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	store, err := relational.New(ctx, db, relational.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: store, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
