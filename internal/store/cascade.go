package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Cascade kinds recorded in the intent log.
const (
	intentDeleteRecording = "delete_recording"
	intentDeleteProject   = "delete_project"
)

// Steps of a recording cascade, in execution order.
const (
	stepAnalyses  = "analyses"  // delete dependent analysis records
	stepDetach    = "detach"    // remove the id from the parent project's recording_ids
	stepRecording = "recording" // delete the recording row itself
)

// Steps of a project cascade, in execution order.
const (
	stepRecordings = "recordings" // cascade-delete each owned recording
	stepProject    = "project"    // delete the project row itself
)

// DeleteRecording cascade-deletes a recording: its analyses first, then the
// back-reference on the parent project, then the recording row. Returns
// whether the recording existed.
//
// The steps run as separate per-collection transactions, guarded by a
// write-ahead intent row. A failure partway returns a CascadeError naming
// the committed steps; the intent stays pending and the cascade is resumed
// on the next Open.
func (s *Store) DeleteRecording(ctx context.Context, id string) (bool, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		"SELECT project_id FROM recordings WHERE id = ?", id,
	).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete recording: %w", err)
	}

	intentID, err := s.writeIntent(ctx, intentDeleteRecording, id, projectID)
	if err != nil {
		return false, fmt.Errorf("delete recording: %w", err)
	}

	if err := s.runRecordingCascade(ctx, intentID, id, projectID, ""); err != nil {
		return true, err
	}
	return true, nil
}

// DeleteProject cascade-deletes a project: every owned recording first
// (each via its own recording cascade), then the project row. Returns
// whether the project existed.
//
// Same failure semantics as DeleteRecording: committed steps stay
// committed, a CascadeError reports the partial state, and the pending
// intent is resumed on the next Open.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects WHERE id = ?", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	if exists == 0 {
		return false, nil
	}

	intentID, err := s.writeIntent(ctx, intentDeleteProject, id, "")
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}

	if err := s.runProjectCascade(ctx, intentID, id, ""); err != nil {
		return true, err
	}
	return true, nil
}

// runRecordingCascade executes (or resumes) the steps of a recording
// cascade. resumeAfter names the last step already committed; empty means
// start from the beginning.
func (s *Store) runRecordingCascade(ctx context.Context, intentID int64, recordingID, projectID, resumeAfter string) error {
	steps := []string{stepAnalyses, stepDetach, stepRecording}
	completed := completedSteps(steps, resumeAfter)

	fail := func(step string, err error) error {
		return &CascadeError{
			Op:        intentDeleteRecording,
			TargetID:  recordingID,
			Completed: append([]string{}, completed...),
			Failed:    step,
			Err:       err,
		}
	}

	for _, step := range steps[len(completed):] {
		var err error
		switch step {
		case stepAnalyses:
			_, err = s.db.ExecContext(ctx,
				"DELETE FROM analyses WHERE recording_id = ?", recordingID)
		case stepDetach:
			_, err = s.removeRecordingRef(ctx, projectID, recordingID)
		case stepRecording:
			_, err = s.db.ExecContext(ctx,
				"DELETE FROM recordings WHERE id = ?", recordingID)
		}
		if err != nil {
			return fail(step, err)
		}
		if err := s.markIntentStep(ctx, intentID, step); err != nil {
			return fail(step, err)
		}
		completed = append(completed, step)
	}

	if err := s.clearIntent(ctx, intentID); err != nil {
		return fail("clear", err)
	}
	return nil
}

// runProjectCascade executes (or resumes) the steps of a project cascade.
func (s *Store) runProjectCascade(ctx context.Context, intentID int64, projectID, resumeAfter string) error {
	steps := []string{stepRecordings, stepProject}
	completed := completedSteps(steps, resumeAfter)

	fail := func(step string, err error) error {
		return &CascadeError{
			Op:        intentDeleteProject,
			TargetID:  projectID,
			Completed: append([]string{}, completed...),
			Failed:    step,
			Err:       err,
		}
	}

	for _, step := range steps[len(completed):] {
		var err error
		switch step {
		case stepRecordings:
			err = s.cascadeOwnedRecordings(ctx, projectID)
		case stepProject:
			_, err = s.db.ExecContext(ctx,
				"DELETE FROM projects WHERE id = ?", projectID)
		}
		if err != nil {
			return fail(step, err)
		}
		if err := s.markIntentStep(ctx, intentID, step); err != nil {
			return fail(step, err)
		}
		completed = append(completed, step)
	}

	if err := s.clearIntent(ctx, intentID); err != nil {
		return fail("clear", err)
	}
	return nil
}

// cascadeOwnedRecordings runs a full recording cascade for every recording
// owned by the project. Each child cascade carries its own intent row, so
// a crash inside a child resumes independently.
func (s *Store) cascadeOwnedRecordings(ctx context.Context, projectID string) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM recordings WHERE project_id = ? ORDER BY created_at ASC, id ASC", projectID)
	if err != nil {
		return fmt.Errorf("list owned recordings: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan owned recording: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate owned recordings: %w", err)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.DeleteRecording(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// repairCascades resumes every pending cascade intent. Run by Open before
// the store is handed to callers, so a crash mid-cascade never leaves
// orphans visible.
func (s *Store) repairCascades(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, target_id, parent_id, completed_step
		FROM cascade_intents
		ORDER BY id ASC
	`)
	if err != nil {
		return fmt.Errorf("query pending intents: %w", err)
	}

	type intent struct {
		id            int64
		kind          string
		targetID      string
		parentID      string
		completedStep string
	}

	var pending []intent
	for rows.Next() {
		var in intent
		if err := rows.Scan(&in.id, &in.kind, &in.targetID, &in.parentID, &in.completedStep); err != nil {
			rows.Close()
			return fmt.Errorf("scan pending intent: %w", err)
		}
		pending = append(pending, in)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate pending intents: %w", err)
	}
	rows.Close()

	for _, in := range pending {
		switch in.kind {
		case intentDeleteRecording:
			err = s.runRecordingCascade(ctx, in.id, in.targetID, in.parentID, in.completedStep)
		case intentDeleteProject:
			err = s.runProjectCascade(ctx, in.id, in.targetID, in.completedStep)
		default:
			// Unknown kind from a newer schema; leave it pending.
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// PendingCascades returns the number of cascade intents awaiting repair.
// Zero on a healthy store; used by diagnostics and tests.
func (s *Store) PendingCascades(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cascade_intents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending intents: %w", err)
	}
	return count, nil
}

// writeIntent records a planned cascade before its first step executes.
func (s *Store) writeIntent(ctx context.Context, kind, targetID, parentID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cascade_intents (kind, target_id, parent_id, completed_step, created_at)
		VALUES (?, ?, ?, '', ?)
	`, kind, targetID, parentID, encodeTime(s.now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("write intent: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write intent: last insert id: %w", err)
	}
	return id, nil
}

// markIntentStep records that a cascade step committed.
func (s *Store) markIntentStep(ctx context.Context, intentID int64, step string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE cascade_intents SET completed_step = ? WHERE id = ?", step, intentID)
	if err != nil {
		return fmt.Errorf("mark intent step %q: %w", step, err)
	}
	return nil
}

// clearIntent removes a completed cascade intent.
func (s *Store) clearIntent(ctx context.Context, intentID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cascade_intents WHERE id = ?", intentID)
	if err != nil {
		return fmt.Errorf("clear intent: %w", err)
	}
	return nil
}

// completedSteps returns the prefix of steps up to and including
// resumeAfter. An empty or unknown resumeAfter yields an empty prefix.
func completedSteps(steps []string, resumeAfter string) []string {
	for i, step := range steps {
		if step == resumeAfter {
			return append([]string(nil), steps[:i+1]...)
		}
	}
	return nil
}
