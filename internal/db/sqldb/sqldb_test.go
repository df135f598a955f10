package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/schooldex/internal/db"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		d    Dialect
		in   string
		want string
	}{
		{SQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{Postgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{Postgres, "SELECT 1", "SELECT 1"},
	}
	for _, tc := range tests {
		if got := tc.d.Rebind(tc.in); got != tc.want {
			t.Errorf("%s.Rebind(%q) = %q, want %q", tc.d, tc.in, got, tc.want)
		}
	}
}

func TestDriverName(t *testing.T) {
	if n, _ := SQLite.DriverName(); n != "sqlite3" {
		t.Errorf("sqlite driver = %q", n)
	}
	if n, _ := Postgres.DriverName(); n != "pgx" {
		t.Errorf("postgres driver = %q", n)
	}
	if _, err := Dialect("oracle").DriverName(); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestOpen_SQLiteMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "schooldex.db")

	d, err := Open(ctx, Config{Dialect: SQLite, DSN: "file:" + path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	// Migrate is idempotent.
	for range 2 {
		if err := d.Migrate(ctx); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
	}
	if err := d.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	for _, table := range []string{"schools", "school_labels", "school_ratings", "search_analytics"} {
		var name string
		err := d.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Config{Dialect: SQLite}); err == nil {
		t.Error("expected error for empty dsn")
	}
	if _, err := Open(ctx, Config{Dialect: "oracle", DSN: "x"}); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestMigrate_ClosedDB(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, Config{Dialect: SQLite, DSN: "file:" + filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = d.Close()

	err = d.Migrate(ctx)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpMigrate {
		t.Fatalf("expected MIGRATE db.Error, got %v", err)
	}
}
