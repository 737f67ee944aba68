package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestDocumentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_documents")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS documents",
		"verification_status verification_status NOT NULL DEFAULT 'pending'",
		"CHECK (storage_backend <> 'cloud' OR backend_id IS NOT NULL)",
		"CREATE INDEX IF NOT EXISTS idx_documents_entity ON documents (entity_type, entity_id)",
		"DROP TABLE IF EXISTS documents",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestListingsMigrationOrdersByCreatedAt(t *testing.T) {
	content := readMigration(t, "create_listings")

	checks := []string{
		"REFERENCES providers(id) ON DELETE CASCADE",
		"images jsonb NOT NULL DEFAULT '[]'::jsonb",
		"ON listings (status, created_at DESC, id DESC)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumsMigrationListsEveryDocumentType(t *testing.T) {
	content := readMigration(t, "create_enums")
	for _, dt := range []string{"'technical_inspection'", "'additional_docs'", "'compliance_certificate'", "'gps_certificate'"} {
		if !strings.Contains(content, dt) {
			t.Errorf("document_type enum missing %s", dt)
		}
	}
}

func TestValidateDirAcceptsRepositoryMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail")
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Listing Index!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_listing_index.sql") {
		t.Fatalf("unexpected path %q", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	files, err := fs.Glob(embedded, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(files) == 0 || len(files) != len(onDisk) {
		t.Fatalf("embedded %d migrations, found %d on disk", len(files), len(onDisk))
	}
}
