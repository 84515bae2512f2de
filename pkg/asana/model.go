package asana

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02" // due_on carries a date, no time component

// Date handles Asana's date-only fields, which arrive as "YYYY-MM-DD",
// an empty string, or null.
type Date struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Asana date string '%s': %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// Timestamp handles Asana's RFC3339 fields (completed_at and friends),
// tolerating null and empty strings.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for Timestamp.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("failed to parse Asana timestamp '%s': %w", s, err)
	}
	ts.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Timestamp.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ts.Time.Format(time.RFC3339) + `"`), nil
}

// Section is a project section as returned by GET /projects/{gid}/sections.
type Section struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// UserRef is the compact user object embedded in task payloads.
type UserRef struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// TaskRef is the compact task object used for parent linkage.
type TaskRef struct {
	GID string `json:"gid"`
}

// Task is a task as returned by GET /sections/{gid}/tasks and
// GET /tasks/{gid}/subtasks with our opt_fields set.
type Task struct {
	GID          string     `json:"gid"`
	Name         string     `json:"name"`
	Notes        string     `json:"notes"`
	Completed    bool       `json:"completed"`
	CompletedAt  *Timestamp `json:"completed_at"`
	Assignee     *UserRef   `json:"assignee"`
	DueOn        *Date      `json:"due_on"`
	PermalinkURL string     `json:"permalink_url"`
	Parent       *TaskRef   `json:"parent"`
	NumSubtasks  int        `json:"num_subtasks"`
}

// User is a user as returned by GET /users/{gid}.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
