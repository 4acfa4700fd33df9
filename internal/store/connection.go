// Package store is the Store component: durable, transactional
// persistence of slot state, runs, deltas, items, prices, price
// history, the cloud outbox, and settings, backed by sqlite through
// sqlx, the same stack and single-writer posture the teacher uses for
// its own embedded database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	sqlite3drv "github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/lootwatch/lootwatchd/pkg/log"
)

//go:embed migrations/sqlite3/*
var migrationFiles embed.FS

const schemaVersion uint = 1

// Store wraps the single sqlite connection used by the whole process.
// sqlite has no useful concurrent-writer story, so the pool is capped
// at one connection and all writers are additionally serialized by
// writeMu (see WithTx), mirroring the teacher's SetMaxOpenConns(1)
// rationale for its own embedded database.
type Store struct {
	db      *sqlx.DB
	writeMu sync.Mutex
}

var registerDriverOnce sync.Once

// Open creates and migrates the sqlite database at dsn and returns a
// Store wrapping it. Callers open exactly one Store for the process
// lifetime and pass it explicitly to every component that needs it.
func Open(driver, dsn string) (*Store, error) {
	if driver != "sqlite3" {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	registerDriverOnce.Do(func() {
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3drv.SQLiteDriver{}, &queryLogHooks{}))
	})
	db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=wal", dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	v, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return err
	}
	if v < schemaVersion {
		log.Warnf("store: schema at version %d, expected %d", v, schemaVersion)
	}
	return nil
}

// Close releases the underlying database handle. Callers normally keep
// the Store open for the process lifetime.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx serializes w against every other writer in the process and
// runs it inside a transaction, committing on success and rolling back
// on any returned error. The Collector's single serialized write path
// and the Cloud Sync Worker's outbox/cloud-price writers both go
// through this.
func (s *Store) WithTx(fn func(tx *sqlx.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryLogHooks struct{}

type queryTimerKey struct{}

func (h *queryLogHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("sql: %s %q", query, args)
	return context.WithValue(ctx, queryTimerKey{}, time.Now()), nil
}

func (h *queryLogHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(queryTimerKey{}).(time.Time); ok {
		log.Debugf("sql: took %s", time.Since(begin))
	}
	return ctx, nil
}
