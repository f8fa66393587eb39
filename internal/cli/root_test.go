package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoran/callprep/internal/model"
	"github.com/rmoran/callprep/internal/store"
)

// execute runs the CLI with the given args against a fresh root command and
// returns captured stdout, stderr, and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// seedDatabase creates a database file with one project, one transcribed
// recording, and one analysis, then closes it.
func seedDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "callprep.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	project, err := s.CreateProject(ctx, model.ProjectInput{
		ID:     "p1",
		Name:   "Acme Co",
		Status: model.StatusInProgress,
	})
	require.NoError(t, err)

	transcript := "hello from the discovery call"
	rec, linked, err := s.CreateRecording(ctx, model.RecordingInput{
		ID:         "r1",
		ProjectID:  project.ID,
		Name:       "Discovery call",
		Duration:   120,
		Audio:      []byte{0x1f, 0x8b, 0x00, 0xff},
		MIMEType:   "audio/webm",
		Transcript: &transcript,
	})
	require.NoError(t, err)
	require.True(t, linked)

	_, linked, err = s.CreateAnalysis(ctx, model.AnalysisInput{
		ID:          "a1",
		RecordingID: rec.ID,
		ProjectID:   project.ID,
		Result:      model.CoverageResult{CoverageRate: 75},
	})
	require.NoError(t, err)
	require.True(t, linked)

	return path
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "stats", "--db", "ignored.db", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_DatabaseFromEnv(t *testing.T) {
	path := seedDatabase(t)
	t.Setenv("CALLPREP_DB", path)

	out, _, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Projects:   1")
}

func TestRootCommand_FlagOverridesEnv(t *testing.T) {
	t.Setenv("CALLPREP_DB", filepath.Join(t.TempDir(), "ignored.db"))
	path := seedDatabase(t)

	out, _, err := execute(t, "stats", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Recordings: 1")
}

func TestStatsCommand_Text(t *testing.T) {
	path := seedDatabase(t)

	out, _, err := execute(t, "stats", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Projects:   1")
	assert.Contains(t, out, "in_progress  1")
	assert.Contains(t, out, "Analyses:   1")
	assert.Contains(t, out, "Duration:   120.0s")
}

func TestStatsCommand_JSON(t *testing.T) {
	path := seedDatabase(t)

	out, _, err := execute(t, "stats", "--db", path, "--format", "json")
	require.NoError(t, err)

	var stats store.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, 1, stats.TotalRecordings)
	assert.Equal(t, 120.0, stats.TotalRecordingDuration)
}
