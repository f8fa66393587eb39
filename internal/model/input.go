package model

// ProjectInput carries the fields accepted when creating a project.
// ID is optional; the store generates one when empty. Status defaults
// to draft.
type ProjectInput struct {
	ID               string
	Name             string
	Description      string
	Status           ProjectStatus
	MeetingVariables *MeetingVariables
	MeetingPlan      *MeetingPlan
	Checklist        Checklist
}

// Validate checks the input and applies defaults in place.
func (in *ProjectInput) Validate() error {
	in.Name = NormalizeName(in.Name)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(in.Status)}
	}
	return nil
}

// ProjectPatch carries a partial update for a project. Nil fields are
// left untouched; the store always advances UpdatedAt on apply.
type ProjectPatch struct {
	Name             *string
	Description      *string
	Status           *ProjectStatus
	MeetingVariables *MeetingVariables
	MeetingPlan      *MeetingPlan
	Checklist        Checklist
}

// Validate checks the patch fields that are present.
func (p *ProjectPatch) Validate() error {
	if p.Name != nil {
		name := NormalizeName(*p.Name)
		if name == "" {
			return &ValidationError{Field: "name", Message: "must not be empty"}
		}
		p.Name = &name
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(*p.Status)}
	}
	return nil
}

// RecordingInput carries the fields accepted when creating a recording.
// FileSize is derived from Audio; supplying a mismatched value is an error.
type RecordingInput struct {
	ID         string
	ProjectID  string
	Name       string
	Duration   float64
	Audio      []byte
	MIMEType   string
	Source     RecordingSource
	Transcript *string
}

// Validate checks the input and applies defaults in place.
func (in *RecordingInput) Validate() error {
	in.Name = NormalizeName(in.Name)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if in.ProjectID == "" {
		return &ValidationError{Field: "project_id", Message: "must not be empty"}
	}
	if in.Duration < 0 {
		return &ValidationError{Field: "duration", Message: "must not be negative"}
	}
	if in.Source == "" {
		in.Source = SourceUploaded
	}
	if !in.Source.Valid() {
		return &ValidationError{Field: "source", Message: "unknown source " + string(in.Source)}
	}
	return nil
}

// AnalysisInput carries the fields accepted when creating an analysis
// record. The checklist and transcript are snapshotted (deep-copied) at
// creation time.
type AnalysisInput struct {
	ID                 string
	RecordingID        string
	ProjectID          string
	ChecklistSnapshot  Checklist
	Result             CoverageResult
	TranscriptSnapshot string
}

// Validate checks the input.
func (in *AnalysisInput) Validate() error {
	if in.RecordingID == "" {
		return &ValidationError{Field: "recording_id", Message: "must not be empty"}
	}
	if in.ProjectID == "" {
		return &ValidationError{Field: "project_id", Message: "must not be empty"}
	}
	if in.Result.CoverageRate < 0 || in.Result.CoverageRate > 100 {
		return &ValidationError{Field: "result.coverage_rate", Message: "must be between 0 and 100"}
	}
	return nil
}
