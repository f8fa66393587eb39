package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/rmoran/callprep/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// isDuplicateErr reports whether err is a primary-key or unique constraint
// violation. Other constraint classes (NOT NULL, CHECK) must not be
// mistaken for id collisions.
func isDuplicateErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// CreateProject stores a new project. When the input carries no id one is
// generated. New projects default to draft status and start with an empty
// recording list.
// Returns ErrDuplicateID if a project with the same id already exists.
func (s *Store) CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	if err := in.Validate(); err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}

	id := in.ID
	if id == "" {
		id = model.NewID()
	}
	now := s.now().UTC()

	p := model.Project{
		ID:               id,
		Name:             in.Name,
		Description:      in.Description,
		Status:           in.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
		MeetingVariables: in.MeetingVariables,
		MeetingPlan:      in.MeetingPlan,
		Checklist:        in.Checklist,
		RecordingIDs:     []string{},
	}

	vars, err := encodeJSONPtr(p.MeetingVariables)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	plan, err := encodeJSONPtr(p.MeetingPlan)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}
	checklist, err := encodeChecklist(p.Checklist)
	if err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects
		(id, name, description, status, created_at, updated_at, meeting_variables, meeting_plan, checklist, recording_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]')
	`,
		p.ID,
		p.Name,
		p.Description,
		string(p.Status),
		encodeTime(p.CreatedAt),
		encodeTime(p.UpdatedAt),
		vars,
		plan,
		checklist,
	)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Project{}, fmt.Errorf("create project %s: %w", p.ID, ErrDuplicateID)
		}
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}

	return p, nil
}

// GetProject retrieves a project by id.
// Returns ErrNotFound if no project has that id.
func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at,
		       meeting_variables, meeting_plan, checklist, recording_ids
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// ListProjects returns all projects ordered by updated_at descending:
// most-recently-touched project first. The id tiebreak keeps the order
// deterministic when timestamps collide.
//
// Returns an empty slice (not nil) when no projects exist.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.queryProjects(ctx, `
		SELECT id, name, description, status, created_at, updated_at,
		       meeting_variables, meeting_plan, checklist, recording_ids
		FROM projects
		ORDER BY updated_at DESC, id COLLATE BINARY ASC
	`)
}

// ListProjectsByStatus returns all projects with the given status, most
// recently updated first.
func (s *Store) ListProjectsByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error) {
	return s.queryProjects(ctx, `
		SELECT id, name, description, status, created_at, updated_at,
		       meeting_variables, meeting_plan, checklist, recording_ids
		FROM projects
		WHERE status = ?
		ORDER BY updated_at DESC, id COLLATE BINARY ASC
	`, string(status))
}

// UpdateProject merges the patch onto an existing project and always
// advances updated_at, even for an empty patch.
// Returns ErrNotFound if no project has that id.
func (s *Store) UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (model.Project, error) {
	if err := patch.Validate(); err != nil {
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Project{}, fmt.Errorf("update project: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, description, status, created_at, updated_at,
		       meeting_variables, meeting_plan, checklist, recording_ids
		FROM projects
		WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.MeetingVariables != nil {
		p.MeetingVariables = patch.MeetingVariables
	}
	if patch.MeetingPlan != nil {
		p.MeetingPlan = patch.MeetingPlan
	}
	if patch.Checklist != nil {
		p.Checklist = patch.Checklist
	}
	p.UpdatedAt = s.now().UTC()

	if err := writeProject(ctx, tx, p); err != nil {
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Project{}, fmt.Errorf("update project: commit: %w", err)
	}

	return p, nil
}

// DeleteProject cascade-deletes a project together with its recordings and
// their analyses. Implemented in cascade.go.

// appendRecordingRef adds a recording id to its parent project's
// back-reference list, advancing the project's updated_at. The append is
// idempotent: an id already present is not duplicated.
//
// Returns linked=false without error when the project does not exist; the
// recording then stays unlinked (documented tolerance of the system).
func (s *Store) appendRecordingRef(ctx context.Context, projectID, recordingID string) (linked bool, err error) {
	return s.mutateRecordingRefs(ctx, projectID, func(ids []string) []string {
		for _, id := range ids {
			if id == recordingID {
				return ids
			}
		}
		return append(ids, recordingID)
	})
}

// removeRecordingRef removes a recording id from its parent project's
// back-reference list. Missing project or absent id are both no-ops.
func (s *Store) removeRecordingRef(ctx context.Context, projectID, recordingID string) (bool, error) {
	return s.mutateRecordingRefs(ctx, projectID, func(ids []string) []string {
		out := ids[:0]
		for _, id := range ids {
			if id != recordingID {
				out = append(out, id)
			}
		}
		return out
	})
}

// mutateRecordingRefs applies fn to a project's recording_ids inside one
// transaction and advances updated_at.
func (s *Store) mutateRecordingRefs(ctx context.Context, projectID string, fn func([]string) []string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("update recording refs: begin tx: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		"SELECT recording_ids FROM projects WHERE id = ?", projectID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update recording refs: %w", err)
	}

	ids, err := decodeIDList(data)
	if err != nil {
		return false, &SerializationError{Entity: "project", Field: "recording_ids", Err: err}
	}

	encoded, err := encodeIDList(fn(ids))
	if err != nil {
		return false, fmt.Errorf("update recording refs: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE projects SET recording_ids = ?, updated_at = ? WHERE id = ?",
		encoded, encodeTime(s.now().UTC()), projectID,
	)
	if err != nil {
		return false, fmt.Errorf("update recording refs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("update recording refs: commit: %w", err)
	}
	return true, nil
}

// queryProjects runs a projects query and scans all rows.
func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	// Return empty slice instead of nil
	if projects == nil {
		projects = []model.Project{}
	}

	return projects, nil
}

// writeProject persists every mutable column of a project.
func writeProject(ctx context.Context, tx *sql.Tx, p model.Project) error {
	vars, err := encodeJSONPtr(p.MeetingVariables)
	if err != nil {
		return err
	}
	plan, err := encodeJSONPtr(p.MeetingPlan)
	if err != nil {
		return err
	}
	checklist, err := encodeChecklist(p.Checklist)
	if err != nil {
		return err
	}
	refs, err := encodeIDList(p.RecordingIDs)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, status = ?, updated_at = ?,
		    meeting_variables = ?, meeting_plan = ?, checklist = ?, recording_ids = ?
		WHERE id = ?
	`,
		p.Name,
		p.Description,
		string(p.Status),
		encodeTime(p.UpdatedAt),
		vars,
		plan,
		checklist,
		refs,
		p.ID,
	)
	return err
}

// scanProject scans one projects row into a Project.
func scanProject(row rowScanner) (model.Project, error) {
	var (
		p                     model.Project
		status                string
		createdAt, updatedAt  string
		vars, plan, checklist sql.NullString
		refs                  string
	)

	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &status, &createdAt, &updatedAt,
		&vars, &plan, &checklist, &refs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, err
		}
		return model.Project{}, fmt.Errorf("scan project: %w", err)
	}

	p.Status = model.ProjectStatus(status)

	var err error
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "created_at", Err: err}
	}
	if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "updated_at", Err: err}
	}
	if p.MeetingVariables, err = decodeJSONPtr[model.MeetingVariables](vars); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "meeting_variables", Err: err}
	}
	if p.MeetingPlan, err = decodeJSONPtr[model.MeetingPlan](plan); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "meeting_plan", Err: err}
	}
	if p.Checklist, err = decodeChecklist(checklist); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "checklist", Err: err}
	}
	if p.RecordingIDs, err = decodeIDList(refs); err != nil {
		return model.Project{}, &SerializationError{Entity: "project", Field: "recording_ids", Err: err}
	}

	return p, nil
}
