package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rmoran/callprep/internal/model"
)

// Snapshot is a read-only export of the full corpus, minus audio payloads.
// Recording metadata (file size, mime type, duration) is retained so the
// snapshot still describes every payload it omits. Export is
// one-directional: no import counterpart exists.
type Snapshot struct {
	SchemaVersion int                    `json:"schema_version" yaml:"schema_version"`
	ExportedAt    time.Time              `json:"exported_at" yaml:"exported_at"`
	Projects      []model.Project        `json:"projects" yaml:"projects"`
	Recordings    []model.Recording      `json:"recordings" yaml:"recordings"`
	Analyses      []model.AnalysisRecord `json:"analyses" yaml:"analyses"`
}

// ExportAll reads the whole corpus into a Snapshot. Audio columns are never
// selected, so payload bytes do not pass through the export path at all.
// All sequences are ordered by created_at then id for stable output.
func (s *Store) ExportAll(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		SchemaVersion: currentSchemaVersion,
		ExportedAt:    s.now().UTC(),
	}

	projects, err := s.queryProjects(ctx, `
		SELECT id, name, description, status, created_at, updated_at,
		       meeting_variables, meeting_plan, checklist, recording_ids
		FROM projects
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export projects: %w", err)
	}
	snap.Projects = projects

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, created_at, duration,
		       mime_type, file_size, source, transcript, transcribed_at, analysis_ids
		FROM recordings
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export recordings: %w", err)
	}
	defer rows.Close()

	snap.Recordings = []model.Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows, false)
		if err != nil {
			return Snapshot{}, fmt.Errorf("export recordings: %w", err)
		}
		snap.Recordings = append(snap.Recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("export recordings: %w", err)
	}

	analyses, err := s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export analyses: %w", err)
	}
	snap.Analyses = analyses

	return snap, nil
}
