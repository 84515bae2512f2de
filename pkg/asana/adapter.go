package asana

import (
	"context"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/model"
)

// SnapshotSection is one section of a project snapshot, tasks in board order.
type SnapshotSection struct {
	GID   string
	Name  string
	Tasks []model.ExternalTask
}

// Snapshot is the full normalized task tree of one project at one moment.
type Snapshot struct {
	ProjectGID string
	Sections   []SnapshotSection
}

// BuildSnapshot fetches a project's sections, their tasks, and each task's
// subtasks, normalized into the shape reconciliation consumes. Any API
// failure aborts the whole snapshot; no retries.
func (c *Client) BuildSnapshot(ctx context.Context, projectGID string) (*Snapshot, error) {
	sections, err := c.ListSections(ctx, projectGID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{ProjectGID: projectGID}
	for _, section := range sections {
		tasks, err := c.ListSectionTasks(ctx, section.GID)
		if err != nil {
			return nil, err
		}

		snapSection := SnapshotSection{GID: section.GID, Name: section.Name}
		for _, task := range tasks {
			external := normalizeTask(task, section)

			if task.NumSubtasks > 0 {
				subtasks, err := c.ListSubtasks(ctx, task.GID)
				if err != nil {
					return nil, err
				}
				for _, sub := range subtasks {
					child := normalizeTask(sub, section)
					// The subtasks endpoint omits parent on some
					// API versions; linkage comes from the walk.
					child.ParentGID = task.GID
					external.Subtasks = append(external.Subtasks, child)
				}
			}

			snapSection.Tasks = append(snapSection.Tasks, external)
		}
		snapshot.Sections = append(snapshot.Sections, snapSection)
	}

	return snapshot, nil
}

// normalizeTask maps the remote schema onto the engine's ExternalTask,
// stamping section provenance on every task including subtasks.
func normalizeTask(t Task, section Section) model.ExternalTask {
	external := model.ExternalTask{
		GID:          t.GID,
		Name:         t.Name,
		Notes:        t.Notes,
		Completed:    t.Completed,
		PermalinkURL: t.PermalinkURL,
		SectionName:  section.Name,
		SectionGID:   section.GID,
	}
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		completedAt := t.CompletedAt.Time
		external.CompletedAt = &completedAt
	}
	if t.DueOn != nil && !t.DueOn.IsZero() {
		dueOn := t.DueOn.Time
		external.DueOn = &dueOn
	}
	if t.Assignee != nil {
		external.AssigneeGID = t.Assignee.GID
		external.AssigneeName = t.Assignee.Name
	}
	if t.Parent != nil {
		external.ParentGID = t.Parent.GID
	}
	return external
}
