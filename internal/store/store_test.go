package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	// Final open should work
	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	tables := []string{"projects", "recordings", "analyses", "cascade_intents"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_SecondaryIndexes(t *testing.T) {
	s := createTestStore(t)

	indexes := []string{
		"idx_projects_status",
		"idx_projects_created_at",
		"idx_projects_updated_at",
		"idx_recordings_project_id",
		"idx_recordings_created_at",
		"idx_analyses_recording_id",
		"idx_analyses_project_id",
		"idx_analyses_created_at",
	}
	for _, index := range indexes {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			index,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q not found: %v", index, err)
		}
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestWipe_RemovesEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateProject(ctx, testProjectInput("p1", "Acme Co")); err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	if _, _, err := s.CreateRecording(ctx, testRecordingInput("r1", "p1", "call-1")); err != nil {
		t.Fatalf("CreateRecording() failed: %v", err)
	}
	if _, _, err := s.CreateAnalysis(ctx, testAnalysisInput("a1", "r1", "p1")); err != nil {
		t.Fatalf("CreateAnalysis() failed: %v", err)
	}

	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("Wipe() failed: %v", err)
	}

	for _, table := range []string{"projects", "recordings", "analyses", "cascade_intents"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after Wipe(), want 0", table, count)
		}
	}
}
