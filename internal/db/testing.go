// Package db provides test utilities for database operations.
//
// Tests requiring database access should use these helpers: in-memory
// databases are much faster than file-based ones, cleanup happens via
// t.Cleanup(), and schema migrations are applied automatically.
package db

import (
	"testing"
)

// NewTestDB creates a migrated in-memory database for testing.
// The database is automatically closed when the test completes.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    d := db.NewTestDB(t)
//	    // use d...
//	}
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
