// Package postgres opens the relational chapter and job stores on a
// PostgreSQL server through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/relational"
)

// ErrMissingDSN is returned when no connection string is configured.
var ErrMissingDSN = errors.New("postgres: connection string is required")

// Store is a PostgreSQL-backed relational store.
type Store struct {
	*relational.Store
}

// NewStore connects to dsn, verifies the connection and runs migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	store, err := relational.New(ctx, db, relational.Postgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{Store: store}, nil
}
