package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rmoran/callprep/internal/model"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock replaces the store clock with one that advances a second per
// call, for deterministic ordering-sensitive tests.
func fixedClock(s *Store, start time.Time) {
	t := start
	s.now = func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// testProjectInput returns a minimal valid project input.
func testProjectInput(id, name string) model.ProjectInput {
	return model.ProjectInput{ID: id, Name: name}
}

// testRecordingInput returns a minimal valid recording input.
func testRecordingInput(id, projectID, name string) model.RecordingInput {
	return model.RecordingInput{
		ID:        id,
		ProjectID: projectID,
		Name:      name,
		Duration:  120,
		Audio:     []byte{0x1f, 0x8b, 0x00, 0xff},
		MIMEType:  "audio/webm",
		Source:    model.SourceUploaded,
	}
}

// testAnalysisInput returns a minimal valid analysis input.
func testAnalysisInput(id, recordingID, projectID string) model.AnalysisInput {
	return model.AnalysisInput{
		ID:          id,
		RecordingID: recordingID,
		ProjectID:   projectID,
		ChecklistSnapshot: model.Checklist{
			{ID: "item-1", Label: "Budget discussed", Required: true},
		},
		Result: model.CoverageResult{
			CoverageRate: 75,
			Covered:      []string{"item-1"},
			Missed:       []string{"item-2"},
		},
		TranscriptSnapshot: "we talked about budget",
	}
}
