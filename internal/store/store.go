package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/datallboy/catfish/internal/infra/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// PersistentStore is the run ledger, backed by sqlite or postgres.
type PersistentStore struct {
	db      *sql.DB
	dialect Dialect
}

// Open builds the ledger selected by cfg.Driver. It returns nil, nil for "none".
func Open(cfg config.StoreConfig) (*PersistentStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN)
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func NewSQLiteStore(dbPath string) (*PersistentStore, error) {
	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	return newStore(db, DialectSQLite)
}

func NewPostgresStore(dsn string) (*PersistentStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	return newStore(db, DialectPostgres)
}

func newStore(db *sql.DB, dialect Dialect) (*PersistentStore, error) {
	// Ping makes sure the database is actually reachable and the DSN is valid
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect, err)
	}

	store := &PersistentStore{db: db, dialect: dialect}

	if err := store.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return store, nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *PersistentStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *PersistentStore) Close() error {
	return s.db.Close()
}
