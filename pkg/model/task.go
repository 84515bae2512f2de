package model

import "time"

// Category is the four-valued classification every synced task receives
// based on the section it lives in.
type Category string

const (
	CategoryPlan     Category = "plan"
	CategoryExecute  Category = "execute"
	CategoryEvaluate Category = "evaluate"
	CategoryImprove  Category = "improve"
)

// Origin records how a local task row came to exist.
type Origin string

const (
	OriginExternal    Origin = "external"
	OriginAIGenerated Origin = "ai_generated"
	OriginUserCreated Origin = "user_created"
)

// Status of a local task.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ExternalTask is the normalized shape of a remote task, produced fresh
// on every sync and never persisted.
type ExternalTask struct {
	GID          string
	Name         string
	Notes        string
	Completed    bool
	CompletedAt  *time.Time
	AssigneeGID  string
	AssigneeName string
	DueOn        *time.Time
	PermalinkURL string
	ParentGID    string // empty for top-level tasks
	Subtasks     []ExternalTask
	SectionName  string
	SectionGID   string
}

// LocalTask is a persisted task row owned by a process.
//
// ExternalGID is empty for rows the sync engine has never touched; such
// rows are invisible to reconciliation. ParentGID is empty for top-level
// rows and always set for subtask rows.
type LocalTask struct {
	ID            string
	ProcessID     string
	Title         string
	Description   string
	Category      Category
	Origin        Origin
	Status        Status
	AssigneeName  string
	AssigneeEmail string
	AssigneeGID   string
	DueOn         *time.Time
	Completed     bool
	CompletedAt   *time.Time
	SectionName   string
	SectionGID    string
	ParentGID     string
	IsSubtask     bool
	ExternalGID   string
	PermalinkURL  string
	LastSyncedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
