package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLeasesMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_leases.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no leases migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS leases",
		"CREATE TABLE IF NOT EXISTS lease_tenants",
		"CONSTRAINT ck_leases_dates CHECK (end_date IS NULL OR end_date > start_date)",
		"EXCLUDE USING gist",
		"daterange(start_date, end_date) WITH &&",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_lease_tenants_lease_user",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAuditMigrationIsAppendOnly(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_audit_log.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no audit log migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS audit_log_entries",
		"BEFORE UPDATE OR DELETE ON audit_log_entries",
		"append-only",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
