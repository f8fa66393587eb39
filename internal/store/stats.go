package store

import (
	"context"
	"fmt"

	"github.com/rmoran/callprep/internal/model"
)

// Stats is a corpus-wide aggregation snapshot. It is computed by full scan
// at call time, not maintained as counters; under the single-writer usage
// pattern it reflects one consistent instant.
type Stats struct {
	TotalProjects          int                         `json:"total_projects" yaml:"total_projects"`
	ProjectsByStatus       map[model.ProjectStatus]int `json:"projects_by_status" yaml:"projects_by_status"`
	TotalRecordings        int                         `json:"total_recordings" yaml:"total_recordings"`
	TotalAnalyses          int                         `json:"total_analyses" yaml:"total_analyses"`
	TotalRecordingDuration float64                     `json:"total_recording_duration" yaml:"total_recording_duration"`
}

// ProjectStats computes corpus statistics.
//
// TotalRecordings counts recordings reachable from an existing project
// (the sum over all projects of RecordingsByProject), so it always matches
// that sum even when unlinked recordings exist. TotalAnalyses likewise
// counts analyses reachable from an existing recording.
// TotalRecordingDuration sums over every recording, reachable or not.
func (s *Store) ProjectStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		ProjectsByStatus: make(map[model.ProjectStatus]int, len(model.AllProjectStatuses)),
	}

	// Zero-fill so unseen statuses still report a count.
	for _, status := range model.AllProjectStatuses {
		stats.ProjectsByStatus[status] = 0
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects").Scan(&stats.TotalProjects)
	if err != nil {
		return Stats{}, fmt.Errorf("count projects: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM projects GROUP BY status")
	if err != nil {
		return Stats{}, fmt.Errorf("count projects by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.ProjectsByStatus[model.ProjectStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate status counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM recordings r
		JOIN projects p ON r.project_id = p.id
	`).Scan(&stats.TotalRecordings)
	if err != nil {
		return Stats{}, fmt.Errorf("count recordings: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM analyses a
		JOIN recordings r ON a.recording_id = r.id
	`).Scan(&stats.TotalAnalyses)
	if err != nil {
		return Stats{}, fmt.Errorf("count analyses: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(duration), 0) FROM recordings").Scan(&stats.TotalRecordingDuration)
	if err != nil {
		return Stats{}, fmt.Errorf("sum durations: %w", err)
	}

	return stats, nil
}
