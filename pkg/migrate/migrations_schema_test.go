package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldtally/stocktake-backend/pkg/migrate"
)

func TestInitSchemaMigrationContainsCoreTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE count_sessions",
		"CREATE TABLE count_lines",
		"CREATE TABLE sync_conflicts",
		"CREATE TABLE outbox_events",
		"CREATE INDEX idx_count_lines_session_item ON count_lines (session_id, item_code)",
		"status conflict_status_enum NOT NULL DEFAULT 'pending'",
		"DROP TABLE IF EXISTS sync_conflicts",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("expected migrations dir to validate, got %v", err)
	}
}
