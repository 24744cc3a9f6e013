package migrations

import (
	"testing"
	"testing/fstest"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestParseMigrationFilename(t *testing.T) {
	v, name, err := parseMigrationFilename("0003_create_posts.up.sql")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v != 3 || name != "create_posts" {
		t.Fatalf("got %d %q", v, name)
	}

	if _, _, err := parseMigrationFilename("create_posts.up.sql"); err == nil {
		t.Fatalf("expected error for missing version")
	}
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	ms, err := loadMigrations(migrationFiles)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(ms) < 3 {
		t.Fatalf("expected at least 3 migrations, got %d", len(ms))
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Version >= ms[i].Version {
			t.Fatalf("migrations out of order: %d before %d", ms[i-1].Version, ms[i].Version)
		}
	}
	for _, m := range ms {
		if m.Down == "" {
			t.Fatalf("migration %s has no down script", m.Name)
		}
	}
}

func TestRunMigrationsSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	fsys := fstest.MapFS{
		"sql/0001_a.up.sql": {Data: []byte("CREATE TABLE a (id INT)")},
		"sql/0002_b.up.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE b \(id INT\)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(2, "b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := runMigrations(db, fsys); err != nil {
		t.Fatalf("runMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
