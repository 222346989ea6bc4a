package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/assets", "pgx5://u:p@localhost:5432/assets"},
		{"postgresql://localhost/assets?sslmode=disable", "pgx5://localhost/assets?sslmode=disable"},
		{"pgx5://localhost/assets", "pgx5://localhost/assets"},
	}

	for _, tt := range tests {
		if got := MigrateURL(tt.in); got != tt.want {
			t.Errorf("MigrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewMigratorInvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/assets")
	if err == nil {
		t.Fatal("Expected error for unknown scheme")
	}
	if !strings.Contains(err.Error(), "failed to initialize migrator") {
		t.Errorf("Error = %v", err)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("Unexpected file in migrations: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("No migrations embedded")
	}
	for base := range ups {
		if !downs[base] {
			t.Errorf("Migration %s has no down file", base)
		}
	}

	up, err := migrationsFS.ReadFile("migrations/000001_create_assets.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, index := range []string{"idx_assets_serial_number", "idx_assets_name", "idx_assets_created_at"} {
		if !strings.Contains(string(up), index) {
			t.Errorf("Initial migration should create %s", index)
		}
	}
}

type fakeMigrate struct {
	upErr, downErr       error
	version              uint
	dirty                bool
	versionErr           error
	srcCloseErr, dbClose error
}

func (f *fakeMigrate) Up() error   { return f.upErr }
func (f *fakeMigrate) Down() error { return f.downErr }
func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}
func (f *fakeMigrate) Close() (error, error) { return f.srcCloseErr, f.dbClose }

func TestMigratorIgnoresNoChange(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{upErr: migrate.ErrNoChange, downErr: migrate.ErrNoChange}}
	if err := m.Up(); err != nil {
		t.Errorf("Up() with no change = %v", err)
	}
	if err := m.Down(); err != nil {
		t.Errorf("Down() with no change = %v", err)
	}

	failing := &Migrator{m: &fakeMigrate{upErr: errors.New("syntax error")}}
	if err := failing.Up(); err == nil {
		t.Error("Up() should surface real failures")
	}
}

func TestMigratorVersion(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	if err != nil || v != 0 || dirty {
		t.Errorf("Version() on empty database = %d, %v, %v", v, dirty, err)
	}

	m = &Migrator{m: &fakeMigrate{version: 1, dirty: true}}
	v, dirty, err = m.Version()
	if err != nil || v != 1 || !dirty {
		t.Errorf("Version() = %d, %v, %v; want 1, true, nil", v, dirty, err)
	}

	m = &Migrator{m: &fakeMigrate{dbClose: errors.New("closed twice")}}
	if err := m.Close(); err == nil {
		t.Error("Close() should report database close errors")
	}
}
