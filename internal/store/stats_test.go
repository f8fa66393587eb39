package store

import (
	"context"
	"testing"

	"github.com/rmoran/callprep/internal/model"
)

func TestProjectStats_EmptyCorpus(t *testing.T) {
	s := createTestStore(t)

	stats, err := s.ProjectStats(context.Background())
	if err != nil {
		t.Fatalf("ProjectStats() failed: %v", err)
	}

	if stats.TotalProjects != 0 || stats.TotalRecordings != 0 || stats.TotalAnalyses != 0 {
		t.Errorf("counts = %+v, want all zero", stats)
	}
	if stats.TotalRecordingDuration != 0 {
		t.Errorf("duration = %v, want 0", stats.TotalRecordingDuration)
	}
	// Every status reports, even with no projects.
	for _, status := range model.AllProjectStatuses {
		if count, ok := stats.ProjectsByStatus[status]; !ok || count != 0 {
			t.Errorf("status %q = %d,%v, want 0 present", status, count, ok)
		}
	}
}

func TestProjectStats_CountsAndDurations(t *testing.T) {
	s := createTestStore(t)
	seedCorpus(t, s, 2, 2, 3)
	ctx := context.Background()

	status := model.StatusCompleted
	if _, err := s.UpdateProject(ctx, "p0", model.ProjectPatch{Status: &status}); err != nil {
		t.Fatalf("UpdateProject() failed: %v", err)
	}

	stats, err := s.ProjectStats(ctx)
	if err != nil {
		t.Fatalf("ProjectStats() failed: %v", err)
	}

	if stats.TotalProjects != 2 {
		t.Errorf("total projects = %d, want 2", stats.TotalProjects)
	}
	if stats.ProjectsByStatus[model.StatusDraft] != 1 || stats.ProjectsByStatus[model.StatusCompleted] != 1 {
		t.Errorf("by status = %v, want 1 draft and 1 completed", stats.ProjectsByStatus)
	}
	if stats.TotalRecordings != 4 {
		t.Errorf("total recordings = %d, want 4", stats.TotalRecordings)
	}
	if stats.TotalAnalyses != 12 {
		t.Errorf("total analyses = %d, want 12", stats.TotalAnalyses)
	}
	// Each seeded recording is 120 seconds.
	if stats.TotalRecordingDuration != 480 {
		t.Errorf("total duration = %v, want 480", stats.TotalRecordingDuration)
	}
}

// TotalRecordings must equal the sum over all projects of the per-project
// recording count, whatever the corpus looks like.
func TestProjectStats_MatchesPerProjectSums(t *testing.T) {
	s := createTestStore(t)
	seedCorpus(t, s, 3, 2, 1)
	ctx := context.Background()

	// An unlinked recording (no such project) is reachable by lookup but
	// belongs to no project, so it must not count.
	if _, _, err := s.CreateRecording(ctx, testRecordingInput("orphan", "ghost", "stray")); err != nil {
		t.Fatalf("CreateRecording() failed: %v", err)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}

	sum := 0
	for _, p := range projects {
		recs, err := s.RecordingsByProject(ctx, p.ID)
		if err != nil {
			t.Fatalf("RecordingsByProject(%s) failed: %v", p.ID, err)
		}
		sum += len(recs)
	}

	stats, err := s.ProjectStats(ctx)
	if err != nil {
		t.Fatalf("ProjectStats() failed: %v", err)
	}
	if stats.TotalRecordings != sum {
		t.Errorf("total recordings = %d, want per-project sum %d", stats.TotalRecordings, sum)
	}
	// The orphan still contributes its duration.
	if stats.TotalRecordingDuration != float64((6+1)*120) {
		t.Errorf("total duration = %v, want %v", stats.TotalRecordingDuration, float64(7*120))
	}
}
