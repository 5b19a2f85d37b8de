package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/msomdec/lesson-loop/internal/repository/sqlite/migrations"
)

// DB wraps the SQLite connection and hands out repositories bound to it.
type DB struct {
	SqlDB *sqlx.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys, and stores times in SQLite's
// canonical text format so range comparisons sort correctly.
func New(dbPath string) (*DB, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep + "_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies all pending embedded migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() *UserRepository {
	return NewUserRepository(db)
}

func (db *DB) RevokedTokens() *RevokedTokenRepository {
	return NewRevokedTokenRepository(db)
}

func (db *DB) Catalog() *CatalogRepository {
	return NewCatalogRepository(db)
}

func (db *DB) Revisions() *RevisionRepository {
	return NewRevisionRepository(db)
}

func (db *DB) StudySessions() *StudySessionRepository {
	return NewStudySessionRepository(db)
}

func (db *DB) Contacts() *ContactRepository {
	return NewContactRepository(db)
}
