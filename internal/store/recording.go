package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rmoran/callprep/internal/model"
)

const recordingColumns = `id, project_id, name, created_at, duration, audio,
	mime_type, file_size, source, transcript, transcribed_at, analysis_ids`

// CreateRecording stores a new recording and links it into its parent
// project's recording_ids. The audio payload is stored byte-for-byte and
// file_size is derived from it.
//
// When the parent project does not exist the recording is still created but
// cannot be linked; linked=false reports that state so callers can surface
// the orphan instead of discovering it later.
// Returns ErrDuplicateID if a recording with the same id already exists.
func (s *Store) CreateRecording(ctx context.Context, in model.RecordingInput) (rec model.Recording, linked bool, err error) {
	if err := in.Validate(); err != nil {
		return model.Recording{}, false, fmt.Errorf("create recording: %w", err)
	}

	id := in.ID
	if id == "" {
		id = model.NewID()
	}
	now := s.now().UTC()

	// Empty payloads are legal; store them as zero bytes, not NULL.
	audio := in.Audio
	if audio == nil {
		audio = []byte{}
	}

	rec = model.Recording{
		ID:          id,
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		CreatedAt:   now,
		Duration:    in.Duration,
		Audio:       audio,
		MIMEType:    in.MIMEType,
		FileSize:    int64(len(audio)),
		Source:      in.Source,
		Transcript:  in.Transcript,
		AnalysisIDs: []string{},
	}
	if rec.Transcript != nil {
		t := now
		rec.TranscribedAt = &t
	}

	var transcript sql.NullString
	if rec.Transcript != nil {
		transcript = sql.NullString{String: *rec.Transcript, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recordings
		(id, project_id, name, created_at, duration, audio, mime_type, file_size, source, transcript, transcribed_at, analysis_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]')
	`,
		rec.ID,
		rec.ProjectID,
		rec.Name,
		encodeTime(rec.CreatedAt),
		rec.Duration,
		rec.Audio,
		rec.MIMEType,
		rec.FileSize,
		string(rec.Source),
		transcript,
		encodeTimePtr(rec.TranscribedAt),
	)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Recording{}, false, fmt.Errorf("create recording %s: %w", rec.ID, ErrDuplicateID)
		}
		return model.Recording{}, false, fmt.Errorf("create recording: %w", err)
	}

	// Back-reference maintenance is a separate projects transaction; the
	// recording above stays even if this fails.
	linked, err = s.appendRecordingRef(ctx, rec.ProjectID, rec.ID)
	if err != nil {
		return rec, false, &CascadeError{
			Op:        "create_recording",
			TargetID:  rec.ID,
			Completed: []string{"recording"},
			Failed:    "link",
			Err:       err,
		}
	}

	return rec, linked, nil
}

// GetRecording retrieves a recording by id, including its audio payload.
// Returns ErrNotFound if no recording has that id.
func (s *Store) GetRecording(ctx context.Context, id string) (model.Recording, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordingColumns+`
		FROM recordings
		WHERE id = ?
	`, id)

	rec, err := scanRecording(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recording{}, fmt.Errorf("recording %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Recording{}, err
	}
	return rec, nil
}

// RecordingsByProject returns all recordings whose project_id matches,
// newest first. This is an equality lookup on the project_id index and
// returns unlinked recordings too; it does not consult the project's
// recording_ids list.
//
// Returns an empty slice (not nil) when there are no matches.
func (s *Store) RecordingsByProject(ctx context.Context, projectID string) ([]model.Recording, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordingColumns+`
		FROM recordings
		WHERE project_id = ?
		ORDER BY created_at DESC, id COLLATE BINARY ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recs []model.Recording
	for rows.Next() {
		rec, err := scanRecording(rows, true)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}

	if recs == nil {
		recs = []model.Recording{}
	}

	return recs, nil
}

// SetTranscript attaches a transcript to a recording, stamping
// transcribed_at. Calling again overwrites the previous transcript; a
// transcript is never cleared implicitly.
// Returns ErrNotFound if no recording has that id.
func (s *Store) SetTranscript(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recordings
		SET transcript = ?, transcribed_at = ?
		WHERE id = ?
	`, text, encodeTime(s.now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set transcript: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set transcript: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recording %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteRecording cascade-deletes a recording together with its analyses
// and detaches it from its parent project. Implemented in cascade.go.

// appendAnalysisRef adds an analysis id to its parent recording's
// back-reference list. Idempotent on the id.
//
// Returns linked=false without error when the recording does not exist.
func (s *Store) appendAnalysisRef(ctx context.Context, recordingID, analysisID string) (bool, error) {
	return s.mutateAnalysisRefs(ctx, recordingID, func(ids []string) []string {
		for _, id := range ids {
			if id == analysisID {
				return ids
			}
		}
		return append(ids, analysisID)
	})
}

// removeAnalysisRef removes an analysis id from its parent recording's
// back-reference list. Missing recording or absent id are both no-ops.
func (s *Store) removeAnalysisRef(ctx context.Context, recordingID, analysisID string) (bool, error) {
	return s.mutateAnalysisRefs(ctx, recordingID, func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != analysisID {
				out = append(out, id)
			}
		}
		return out
	})
}

// mutateAnalysisRefs applies fn to a recording's analysis_ids inside one
// transaction. Recordings carry no updated_at, so only the list changes.
func (s *Store) mutateAnalysisRefs(ctx context.Context, recordingID string, fn func([]string) []string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("update analysis refs: begin tx: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		"SELECT analysis_ids FROM recordings WHERE id = ?", recordingID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update analysis refs: %w", err)
	}

	ids, err := decodeIDList(data)
	if err != nil {
		return false, &SerializationError{Entity: "recording", Field: "analysis_ids", Err: err}
	}

	encoded, err := encodeIDList(fn(ids))
	if err != nil {
		return false, fmt.Errorf("update analysis refs: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE recordings SET analysis_ids = ? WHERE id = ?",
		encoded, recordingID,
	)
	if err != nil {
		return false, fmt.Errorf("update analysis refs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("update analysis refs: commit: %w", err)
	}
	return true, nil
}

// scanRecording scans one recordings row into a Recording. withAudio
// controls whether the audio column is part of the selected row; export
// reads rows without it.
func scanRecording(row rowScanner, withAudio bool) (model.Recording, error) {
	var (
		rec                       model.Recording
		createdAt, source         string
		transcript, transcribedAt sql.NullString
		refs                      string
	)

	var dest []any
	if withAudio {
		dest = []any{
			&rec.ID, &rec.ProjectID, &rec.Name, &createdAt, &rec.Duration, &rec.Audio,
			&rec.MIMEType, &rec.FileSize, &source, &transcript, &transcribedAt, &refs,
		}
	} else {
		dest = []any{
			&rec.ID, &rec.ProjectID, &rec.Name, &createdAt, &rec.Duration,
			&rec.MIMEType, &rec.FileSize, &source, &transcript, &transcribedAt, &refs,
		}
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Recording{}, err
		}
		return model.Recording{}, fmt.Errorf("scan recording: %w", err)
	}

	rec.Source = model.RecordingSource(source)
	if transcript.Valid {
		t := transcript.String
		rec.Transcript = &t
	}

	var err error
	if rec.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.Recording{}, &SerializationError{Entity: "recording", Field: "created_at", Err: err}
	}
	if rec.TranscribedAt, err = decodeTimePtr(transcribedAt); err != nil {
		return model.Recording{}, &SerializationError{Entity: "recording", Field: "transcribed_at", Err: err}
	}
	if rec.AnalysisIDs, err = decodeIDList(refs); err != nil {
		return model.Recording{}, &SerializationError{Entity: "recording", Field: "analysis_ids", Err: err}
	}

	return rec, nil
}
