// Package sqlite is the handoff store driver for deployments where
// offergate runs behind a multi-process front or must survive restarts
// within a record's lifetime. Tokens are sealed before they touch disk.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/troyjfarrell/offergate/internal/offer/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent consume/put and keeps :memory:
	// databases coherent in tests.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Handoffs() store.Handoffs { return &handoffsRepo{db: s.db} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }
