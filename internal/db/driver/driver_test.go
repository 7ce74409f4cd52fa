package driver

import (
	"context"
	"testing"
)

func TestParseDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", DialectSQLite, false},
		{"postgres", DialectPostgres, false},
		{"mysql", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDialect(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDialect(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDialect(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	sqlite := &SQLiteDriver{}
	if got := sqlite.Placeholder(1); got != "?" {
		t.Errorf("sqlite placeholder: got %q, want ?", got)
	}
	if got := sqlite.Placeholder(5); got != "?" {
		t.Errorf("sqlite placeholder: got %q, want ?", got)
	}

	pg := &PostgresDriver{}
	if got := pg.Placeholder(1); got != "$1" {
		t.Errorf("postgres placeholder: got %q, want $1", got)
	}
	if got := pg.Placeholder(5); got != "$5" {
		t.Errorf("postgres placeholder: got %q, want $5", got)
	}
}

func TestSQLiteOpenExecQuery(t *testing.T) {
	t.Parallel()

	drv, err := New(DialectSQLite)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	if err := drv.Open(":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = drv.Close() }()

	ctx := context.Background()
	if _, err := drv.Exec(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := drv.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", "1"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var v string
	if err := drv.QueryRow(ctx, "SELECT v FROM kv WHERE k = ?", "a").Scan(&v); err != nil {
		t.Fatalf("query: %v", err)
	}
	if v != "1" {
		t.Errorf("expected v=1, got %q", v)
	}
}

func TestSQLiteTransactionRollback(t *testing.T) {
	t.Parallel()

	drv, err := New(DialectSQLite)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	if err := drv.Open(":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = drv.Close() }()

	ctx := context.Background()
	if _, err := drv.Exec(ctx, "CREATE TABLE kv (k TEXT PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := drv.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO kv (k) VALUES (?)", "a"); err != nil {
		t.Fatalf("tx insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var n int
	if err := drv.QueryRow(ctx, "SELECT COUNT(*) FROM kv").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected rollback to discard the insert, got %d rows", n)
	}
}
