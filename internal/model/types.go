package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ProjectStatus is the lifecycle state of a Project.
type ProjectStatus string

const (
	StatusDraft      ProjectStatus = "draft"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusArchived   ProjectStatus = "archived"
)

// AllProjectStatuses lists every status in display order.
// Stats aggregation uses this to zero-fill counts for unseen statuses.
var AllProjectStatuses = []ProjectStatus{
	StatusDraft,
	StatusInProgress,
	StatusCompleted,
	StatusArchived,
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// RecordingSource identifies how a recording entered the system.
type RecordingSource string

const (
	SourceRealtime RecordingSource = "realtime"
	SourceUploaded RecordingSource = "uploaded"
)

// Valid reports whether s is a known recording source.
func (s RecordingSource) Valid() bool {
	return s == SourceRealtime || s == SourceUploaded
}

// ChecklistItem is one talking point the seller should cover on a call.
type ChecklistItem struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Checklist is the ordered set of items for a project.
type Checklist []ChecklistItem

// Clone returns a deep copy of the checklist.
// Analysis snapshots must never alias the live project checklist.
func (c Checklist) Clone() Checklist {
	if c == nil {
		return nil
	}
	out := make(Checklist, len(c))
	copy(out, c)
	return out
}

// MeetingVariables captures the prep-form inputs a meeting plan is
// generated from.
type MeetingVariables struct {
	Customer string            `json:"customer,omitempty" yaml:"customer,omitempty"`
	Product  string            `json:"product,omitempty" yaml:"product,omitempty"`
	Goal     string            `json:"goal,omitempty" yaml:"goal,omitempty"`
	Extra    map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// PlanSection is one titled section of a generated meeting plan.
type PlanSection struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// MeetingPlan is the generated call plan attached to a project.
type MeetingPlan struct {
	Sections    []PlanSection `json:"sections" yaml:"sections"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
}

// ItemCoverage records the analysis verdict for one checklist item.
type ItemCoverage struct {
	ItemID   string `json:"item_id" yaml:"item_id"`
	Covered  bool   `json:"covered" yaml:"covered"`
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"` // transcript excerpt supporting the verdict
}

// CoverageResult is the outcome of one coverage analysis run.
type CoverageResult struct {
	CoverageRate float64        `json:"coverage_rate" yaml:"coverage_rate"` // percentage of items covered, 0-100
	Covered      []string       `json:"covered,omitempty" yaml:"covered,omitempty"`
	Missed       []string       `json:"missed,omitempty" yaml:"missed,omitempty"`
	Items        []ItemCoverage `json:"items,omitempty" yaml:"items,omitempty"`
	Summary      string         `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Project is a sales engagement. It owns zero or more Recordings via the
// denormalized RecordingIDs list, which the store keeps in sync.
type Project struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Status           ProjectStatus     `json:"status" yaml:"status"`
	CreatedAt        time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" yaml:"updated_at"`
	MeetingVariables *MeetingVariables `json:"meeting_variables,omitempty" yaml:"meeting_variables,omitempty"`
	MeetingPlan      *MeetingPlan      `json:"meeting_plan,omitempty" yaml:"meeting_plan,omitempty"`
	Checklist        Checklist         `json:"checklist,omitempty" yaml:"checklist,omitempty"`
	RecordingIDs     []string          `json:"recording_ids" yaml:"recording_ids"`
}

// Recording is one captured or imported audio session belonging to exactly
// one Project. Audio is held fully in memory; callers bound payload size.
type Recording struct {
	ID            string          `json:"id" yaml:"id"`
	ProjectID     string          `json:"project_id" yaml:"project_id"`
	Name          string          `json:"name" yaml:"name"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	Duration      float64         `json:"duration" yaml:"duration"` // seconds, >= 0
	Audio         []byte          `json:"-" yaml:"-"`               // opaque bytes, never serialized
	MIMEType      string          `json:"mime_type" yaml:"mime_type"`
	FileSize      int64           `json:"file_size" yaml:"file_size"` // byte length of Audio
	Source        RecordingSource `json:"source" yaml:"source"`
	Transcript    *string         `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	TranscribedAt *time.Time      `json:"transcribed_at,omitempty" yaml:"transcribed_at,omitempty"`
	AnalysisIDs   []string        `json:"analysis_ids" yaml:"analysis_ids"`
}

// AnalysisRecord is an immutable snapshot of one coverage analysis run.
// RecordingID and ProjectID never change after creation, and the snapshot
// fields are copies, not references to live entities.
type AnalysisRecord struct {
	ID                 string         `json:"id" yaml:"id"`
	RecordingID        string         `json:"recording_id" yaml:"recording_id"`
	ProjectID          string         `json:"project_id" yaml:"project_id"`
	CreatedAt          time.Time      `json:"created_at" yaml:"created_at"`
	ChecklistSnapshot  Checklist      `json:"checklist_snapshot" yaml:"checklist_snapshot"`
	Result             CoverageResult `json:"result" yaml:"result"`
	TranscriptSnapshot string         `json:"transcript_snapshot" yaml:"transcript_snapshot"`
}

// NewID returns a fresh globally-unique entity id.
func NewID() string {
	return uuid.NewString()
}

// NormalizeName returns the NFC-normalized, whitespace-trimmed form of a
// user-entered name. Names are compared and displayed in this form.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidationError reports a rejected entity field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
