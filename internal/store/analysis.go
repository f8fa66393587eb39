package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rmoran/callprep/internal/model"
)

const analysisColumns = `id, recording_id, project_id, created_at,
	checklist_snapshot, result, transcript_snapshot`

// CreateAnalysis stores a new analysis record and links it into its parent
// recording's analysis_ids. The checklist and transcript are snapshotted:
// the stored copies never alias the caller's values, and the record is
// immutable after creation.
//
// When the parent recording does not exist the record is still created but
// cannot be linked; linked=false reports that state (same tolerance as
// CreateRecording).
// Returns ErrDuplicateID if an analysis with the same id already exists.
func (s *Store) CreateAnalysis(ctx context.Context, in model.AnalysisInput) (rec model.AnalysisRecord, linked bool, err error) {
	if err := in.Validate(); err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("create analysis: %w", err)
	}

	id := in.ID
	if id == "" {
		id = model.NewID()
	}

	rec = model.AnalysisRecord{
		ID:                 id,
		RecordingID:        in.RecordingID,
		ProjectID:          in.ProjectID,
		CreatedAt:          s.now().UTC(),
		ChecklistSnapshot:  snapshotChecklist(in.ChecklistSnapshot),
		Result:             in.Result,
		TranscriptSnapshot: in.TranscriptSnapshot,
	}

	snapshot, err := encodeChecklistSnapshot(rec.ChecklistSnapshot)
	if err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("create analysis: %w", err)
	}
	result, err := encodeResult(rec.Result)
	if err != nil {
		return model.AnalysisRecord{}, false, fmt.Errorf("create analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses
		(id, recording_id, project_id, created_at, checklist_snapshot, result, transcript_snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.RecordingID,
		rec.ProjectID,
		encodeTime(rec.CreatedAt),
		snapshot,
		result,
		rec.TranscriptSnapshot,
	)
	if err != nil {
		if isDuplicateErr(err) {
			return model.AnalysisRecord{}, false, fmt.Errorf("create analysis %s: %w", rec.ID, ErrDuplicateID)
		}
		return model.AnalysisRecord{}, false, fmt.Errorf("create analysis: %w", err)
	}

	linked, err = s.appendAnalysisRef(ctx, rec.RecordingID, rec.ID)
	if err != nil {
		return rec, false, &CascadeError{
			Op:        "create_analysis",
			TargetID:  rec.ID,
			Completed: []string{"analysis"},
			Failed:    "link",
			Err:       err,
		}
	}

	return rec, linked, nil
}

// GetAnalysis retrieves an analysis record by id.
// Returns ErrNotFound if no analysis has that id.
func (s *Store) GetAnalysis(ctx context.Context, id string) (model.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE id = ?
	`, id)

	rec, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AnalysisRecord{}, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	return rec, nil
}

// AnalysesByRecording returns all analysis records for a recording,
// newest first.
// Returns an empty slice (not nil) when there are no matches.
func (s *Store) AnalysesByRecording(ctx context.Context, recordingID string) ([]model.AnalysisRecord, error) {
	return s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE recording_id = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, recordingID)
}

// AnalysesByProject returns all analysis records under a project,
// newest first.
// Returns an empty slice (not nil) when there are no matches.
func (s *Store) AnalysesByProject(ctx context.Context, projectID string) ([]model.AnalysisRecord, error) {
	return s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE project_id = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, projectID)
}

// DeleteAnalysis removes an analysis record and detaches it from its parent
// recording's analysis_ids. Returns whether the record existed.
//
// The delete and the detach are separate transactions; a detach failure
// after the delete committed surfaces as a CascadeError.
func (s *Store) DeleteAnalysis(ctx context.Context, id string) (bool, error) {
	var recordingID string
	err := s.db.QueryRowContext(ctx,
		"SELECT recording_id FROM analyses WHERE id = ?", id,
	).Scan(&recordingID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete analysis: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("delete analysis: %w", err)
	}

	if _, err := s.removeAnalysisRef(ctx, recordingID, id); err != nil {
		return true, &CascadeError{
			Op:        "delete_analysis",
			TargetID:  id,
			Completed: []string{"analysis"},
			Failed:    "detach",
			Err:       err,
		}
	}

	return true, nil
}

// queryAnalyses runs an analyses query and scans all rows.
func (s *Store) queryAnalyses(ctx context.Context, query string, args ...any) ([]model.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var records []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	if records == nil {
		records = []model.AnalysisRecord{}
	}

	return records, nil
}

// snapshotChecklist deep-copies a checklist for storage on an analysis
// record. A nil input becomes an empty snapshot; the snapshot column is
// NOT NULL and always reads back non-nil.
func snapshotChecklist(c model.Checklist) model.Checklist {
	if c == nil {
		return model.Checklist{}
	}
	return c.Clone()
}

// encodeChecklistSnapshot serializes a checklist snapshot.
func encodeChecklistSnapshot(c model.Checklist) (string, error) {
	if len(c) == 0 {
		return "[]", nil
	}
	return encodeJSON(c)
}

// scanAnalysis scans one analyses row into an AnalysisRecord.
func scanAnalysis(row rowScanner) (model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	var createdAt, snapshotJSON, resultJSON string

	if err := row.Scan(
		&rec.ID, &rec.RecordingID, &rec.ProjectID, &createdAt,
		&snapshotJSON, &resultJSON, &rec.TranscriptSnapshot,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AnalysisRecord{}, err
		}
		return model.AnalysisRecord{}, fmt.Errorf("scan analysis: %w", err)
	}

	var err error
	if rec.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.AnalysisRecord{}, &SerializationError{Entity: "analysis", Field: "created_at", Err: err}
	}
	snapshot, err := decodeChecklist(sql.NullString{String: snapshotJSON, Valid: true})
	if err != nil {
		return model.AnalysisRecord{}, &SerializationError{Entity: "analysis", Field: "checklist_snapshot", Err: err}
	}
	if snapshot == nil {
		snapshot = model.Checklist{}
	}
	rec.ChecklistSnapshot = snapshot
	if rec.Result, err = decodeResult(resultJSON); err != nil {
		return model.AnalysisRecord{}, &SerializationError{Entity: "analysis", Field: "result", Err: err}
	}

	return rec, nil
}
