package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/model"
)

const taskColumns = `id, process_id, title, description, category, origin, status,
	assignee_name, assignee_email, assignee_gid, due_on, completed, completed_at,
	section_name, section_gid, parent_gid, is_subtask, external_gid, permalink_url,
	last_synced_at, created_at, updated_at`

// SelectSynced returns every task of a process that carries an external
// gid, whatever its origin. Rows with an empty external gid never enter
// reconciliation.
func (s *Store) SelectSynced(ctx context.Context, processID string) ([]model.LocalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE process_id = ? AND external_gid != ''`
	return s.queryTasks(ctx, query, processID)
}

// ListByProcess returns every task of a process, all origins included,
// grouped by section with subtasks after their parents.
func (s *Store) ListByProcess(ctx context.Context, processID string) ([]model.LocalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE process_id = ?
		ORDER BY section_name, is_subtask, created_at`
	return s.queryTasks(ctx, query, processID)
}

// GetTask retrieves a task by id. Returns ErrNotFound if it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*model.LocalTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	task, err := scanTask(s.exec.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Insert writes a new task row. If the id is empty a fresh UUID is assigned.
func (s *Store) Insert(ctx context.Context, t *model.LocalTask) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.exec.ExecContext(ctx, query,
		t.ID, t.ProcessID, t.Title, t.Description, t.Category, t.Origin, t.Status,
		t.AssigneeName, t.AssigneeEmail, t.AssigneeGID, nullTime(t.DueOn), boolInt(t.Completed), nullTime(t.CompletedAt),
		t.SectionName, t.SectionGID, t.ParentGID, boolInt(t.IsSubtask), t.ExternalGID, t.PermalinkURL,
		nullTime(t.LastSyncedAt), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// Update rewrites every mutable field of an existing row.
func (s *Store) Update(ctx context.Context, t *model.LocalTask) error {
	query := `UPDATE tasks SET
		process_id = ?, title = ?, description = ?, category = ?, origin = ?, status = ?,
		assignee_name = ?, assignee_email = ?, assignee_gid = ?, due_on = ?, completed = ?, completed_at = ?,
		section_name = ?, section_gid = ?, parent_gid = ?, is_subtask = ?, external_gid = ?, permalink_url = ?,
		last_synced_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := s.exec.ExecContext(ctx, query,
		t.ProcessID, t.Title, t.Description, t.Category, t.Origin, t.Status,
		t.AssigneeName, t.AssigneeEmail, t.AssigneeGID, nullTime(t.DueOn), boolInt(t.Completed), nullTime(t.CompletedAt),
		t.SectionName, t.SectionGID, t.ParentGID, boolInt(t.IsSubtask), t.ExternalGID, t.PermalinkURL,
		nullTime(t.LastSyncedAt), t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task row by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.exec.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUserTask inserts a manually created task. It carries no external
// gid, which keeps it invisible to the sync engine.
func (s *Store) CreateUserTask(ctx context.Context, processID, title, description string, category model.Category) (*model.LocalTask, error) {
	now := time.Now()
	t := &model.LocalTask{
		ID:          uuid.NewString(),
		ProcessID:   processID,
		Title:       title,
		Description: description,
		Category:    category,
		Origin:      model.OriginUserCreated,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteProcessTasks removes every task of a process. Used when a process
// is retired.
func (s *Store) DeleteProcessTasks(ctx context.Context, processID string) (int64, error) {
	res, err := s.exec.ExecContext(ctx, `DELETE FROM tasks WHERE process_id = ?`, processID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete process tasks: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]model.LocalTask, error) {
	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.LocalTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.LocalTask, error) {
	t := &model.LocalTask{}
	var (
		dueOn, completedAt, lastSyncedAt sql.NullTime
		completed, isSubtask             int
	)
	err := row.Scan(
		&t.ID, &t.ProcessID, &t.Title, &t.Description, &t.Category, &t.Origin, &t.Status,
		&t.AssigneeName, &t.AssigneeEmail, &t.AssigneeGID, &dueOn, &completed, &completedAt,
		&t.SectionName, &t.SectionGID, &t.ParentGID, &isSubtask, &t.ExternalGID, &t.PermalinkURL,
		&lastSyncedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Completed = completed == 1
	t.IsSubtask = isSubtask == 1
	t.DueOn = timePtr(dueOn)
	t.CompletedAt = timePtr(completedAt)
	t.LastSyncedAt = timePtr(lastSyncedAt)
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
