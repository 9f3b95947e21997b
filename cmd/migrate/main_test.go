package main

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dvloznov/tally-ledger/migrations"
	"github.com/rs/zerolog"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, "0001", "init_schema_migrations"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m := migrationPattern.FindStringSubmatch(tt.filename)
			if (m != nil) != tt.valid {
				t.Fatalf("match = %v, want %v", m != nil, tt.valid)
			}
			if tt.valid && (m[1] != tt.version || m[2] != tt.name) {
				t.Errorf("got (%s, %s), want (%s, %s)", m[1], m[2], tt.version, tt.name)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_create_b.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);")},
		"m/0001_create_a.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);")},
		"m/README.md":         {Data: []byte("notes")},
	}

	got, err := readMigrations(fsys, "m", "proj", "ds", zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}
	if len(got) != 2 || got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("Expected versions [1 2], got: %+v", got)
	}
	if !strings.Contains(got[0].SQL, "`proj.ds.a`") {
		t.Errorf("placeholders not substituted: %s", got[0].SQL)
	}

	// The checksum ignores the target project.
	again, _ := readMigrations(fsys, "m", "other", "ds2", zerolog.Nop())
	if again[0].Checksum != got[0].Checksum {
		t.Error("Expected checksum to be independent of project and dataset")
	}
	if got[0].Checksum == got[1].Checksum {
		t.Error("Different content should not share a checksum")
	}

	fsys["m/0001_duplicate.sql"] = &fstest.MapFile{Data: []byte("SELECT 1;")}
	if _, err := readMigrations(fsys, "m", "proj", "ds", zerolog.Nop()); err == nil {
		t.Error("Expected error for duplicate version")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := readMigrations(migrations.BigQuery, "bigquery", "proj", "ledger", zerolog.Nop())
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}
	if len(got) < 3 || got[0].Name != "init_schema_migrations" {
		t.Fatalf("unexpected embedded migrations: %+v", got)
	}
	for i, m := range got {
		if m.Version != i+1 {
			t.Errorf("Expected contiguous versions, %s has %d", m.Filename, m.Version)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("%s has unsubstituted placeholders", m.Filename)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}

	pending, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "c1"}, {Version: 2}})
	if err != nil {
		t.Fatalf("pendingMigrations failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("Expected only version 3 pending, got: %+v", pending)
	}

	if _, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "edited"}}); err == nil {
		t.Error("Expected error for a modified applied migration")
	}
}

func TestNewApp_Commands(t *testing.T) {
	a := newApp()
	for _, name := range []string{"bigquery", "sql"} {
		if a.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
}
