package sqlite_test

import (
	"database/sql"
	"testing"

	"github.com/agrigpt/agrigpt/internal/infra/sqlite"
)

// TestMigrate_RunsAllMigrations verifies that MigrateUp applies all pending migrations.
func TestMigrate_RunsAllMigrations(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v; want nil", err)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM schema_migrations")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("SELECT COUNT(*) FROM schema_migrations error = %v", err)
	}

	if count == 0 {
		t.Error("schema_migrations has 0 rows after MigrateUp; want > 0")
	}
}

// TestMigrate_Idempotent verifies that running MigrateUp twice does not fail.
func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() first run error = %v; want nil", err)
	}

	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() second run error = %v; want nil (idempotent)", err)
	}
}

// TestMigrate_SessionTablesCreated verifies the session tables exist after migration.
func TestMigrate_SessionTablesCreated(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	assertTableExists(t, db, "session")
	assertTableExists(t, db, "session_turn")
	assertTableExists(t, db, "session_image")
}

// TestMigrate_SchemeTablesCreated verifies the scheme knowledge tables exist.
func TestMigrate_SchemeTablesCreated(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	assertTableExists(t, db, "scheme")
	assertTableExists(t, db, "scheme_embedding")
}

// TestMigrationVersion_AfterMigrate verifies the reported version matches the
// highest migration file.
func TestMigrationVersion_AfterMigrate(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	version, err := sqlite.MigrationVersion(db)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if version < 2 {
		t.Errorf("MigrationVersion() = %d; want >= 2", version)
	}
}

// TestMigrationVersion_FreshDB returns 0 before any migration is applied.
func TestMigrationVersion_FreshDB(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)

	version, err := sqlite.MigrationVersion(db)
	if err != nil {
		t.Fatalf("MigrationVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("MigrationVersion() on fresh DB = %d; want 0", version)
	}
}

// assertTableExists fails the test if tableName is absent from sqlite_master.
func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		tableName,
	).Scan(&name)

	if err == sql.ErrNoRows {
		t.Errorf("table %q not found in sqlite_master after MigrateUp", tableName)
		return
	}
	if err != nil {
		t.Fatalf("assertTableExists(%q) query error = %v", tableName, err)
	}
}
