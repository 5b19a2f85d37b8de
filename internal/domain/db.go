package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation owns its own migration files and strategy, so the
// storage backend can be swapped without touching services.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
