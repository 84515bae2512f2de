// Package reconcile implements the one-directional task reconciliation
// engine: it pulls a project's task tree from the external system and
// converges the local task store on it, without creating duplicates,
// without touching locally-created tasks, and without re-importing
// documentation placeholders the tracker itself exported.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/asana"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/assignee"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/classify"
	"github.com/malone1029/nia-results-tracker-sub002/pkg/model"
)

// Source produces the normalized external snapshot for a project.
type Source interface {
	BuildSnapshot(ctx context.Context, projectGID string) (*asana.Snapshot, error)
}

// Repository is the persistence surface the reconciler reads and writes.
// SelectSynced must return every row of the process that carries a
// non-empty external gid, whatever its origin; rows with an empty
// external gid are invisible to the engine.
type Repository interface {
	SelectSynced(ctx context.Context, processID string) ([]model.LocalTask, error)
	Insert(ctx context.Context, task *model.LocalTask) error
	Update(ctx context.Context, task *model.LocalTask) error
	Delete(ctx context.Context, id string) error
}

// candidate is one flattened, classified external task headed for upsert.
type candidate struct {
	model.ExternalTask
	Category  model.Category
	IsSubtask bool
}

// Reconciler runs sync passes. Callers must serialize passes per process;
// the engine defines no mutual exclusion of its own.
type Reconciler struct {
	source     Source
	repo       Repository
	lookup     assignee.UserLookup
	classifier *classify.Classifier
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// New creates a Reconciler. A nil classifier gets the production tables.
func New(source Source, repo Repository, lookup assignee.UserLookup, classifier *classify.Classifier, log zerolog.Logger) *Reconciler {
	if classifier == nil {
		classifier = classify.Default()
	}
	return &Reconciler{
		source:     source,
		repo:       repo,
		lookup:     lookup,
		classifier: classifier,
		log:        log,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Sync runs one reconciliation pass for one process: fetch snapshot,
// flatten and classify, resolve assignees, upsert by external gid, delete
// orphans, summarize. Deletion never starts before every upsert has run.
func (r *Reconciler) Sync(ctx context.Context, processID, processName, projectGID string) Result {
	result := Result{ProcessID: processID, ProcessName: processName}

	snapshot, err := r.source.BuildSnapshot(ctx, projectGID)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", processID).Msg("snapshot fetch failed")
		result.Err = err
		return result
	}

	candidates := r.flatten(snapshot)
	result.Total = len(candidates)

	var assigneeGIDs []string
	for _, c := range candidates {
		if c.AssigneeGID != "" {
			assigneeGIDs = append(assigneeGIDs, c.AssigneeGID)
		}
	}
	// The resolver is rebuilt each pass so emails are never served stale
	// across sync runs.
	emails := assignee.NewResolver(r.lookup, r.log).Resolve(ctx, assigneeGIDs)

	existing, err := r.repo.SelectSynced(ctx, processID)
	if err != nil {
		r.log.Error().Err(err).Str("process_id", processID).Msg("loading synced rows failed")
		result.Err = err
		result.Total = 0
		return result
	}
	byGID := make(map[string]model.LocalTask, len(existing))
	for _, row := range existing {
		byGID[row.ExternalGID] = row
	}

	syncedAt := r.now()
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		row := r.buildRow(processID, c, emails, syncedAt)
		if prior, ok := byGID[c.GID]; ok {
			row.ID = prior.ID
			row.CreatedAt = prior.CreatedAt
			if err := r.repo.Update(ctx, row); err != nil {
				r.log.Warn().Err(err).Str("external_gid", c.GID).Msg("task update failed")
				result.WriteFailures++
			} else {
				result.Updated++
			}
		} else {
			row.ID = r.newID()
			row.CreatedAt = syncedAt
			if err := r.repo.Insert(ctx, row); err != nil {
				r.log.Warn().Err(err).Str("external_gid", c.GID).Msg("task insert failed")
				result.WriteFailures++
			} else {
				result.Imported++
			}
		}
		seen[c.GID] = true
	}

	for gid, row := range byGID {
		if seen[gid] {
			continue
		}
		// Only rows the engine itself created are cleaned up. A row of
		// another origin that carries a gid no longer upstream stays: it
		// existed before it was exported and still belongs to its owner.
		if row.Origin != model.OriginExternal {
			continue
		}
		if err := r.repo.Delete(ctx, row.ID); err != nil {
			r.log.Warn().Err(err).Str("external_gid", gid).Msg("orphan delete failed")
			result.WriteFailures++
			continue
		}
		result.Removed++
	}

	result.LastSyncedAt = syncedAt
	r.log.Info().
		Str("process_id", processID).
		Int("imported", result.Imported).
		Int("updated", result.Updated).
		Int("removed", result.Removed).
		Int("total", result.Total).
		Int("write_failures", result.WriteFailures).
		Msg("sync pass complete")
	return result
}

// flatten walks sections depth-first, emitting one candidate per
// non-documentation task. A documentation task is dropped together with
// its subtasks; a subtask whose own name matches a prefix is dropped too.
func (r *Reconciler) flatten(snapshot *asana.Snapshot) []candidate {
	var candidates []candidate
	for _, section := range snapshot.Sections {
		category := r.classifier.CategoryForSection(section.Name)
		for _, task := range section.Tasks {
			if r.classifier.IsDocumentationTask(task.Name) {
				continue
			}
			top := candidate{ExternalTask: task, Category: category}
			top.ParentGID = ""
			top.Subtasks = nil
			candidates = append(candidates, top)

			for _, sub := range task.Subtasks {
				if r.classifier.IsDocumentationTask(sub.Name) {
					continue
				}
				child := candidate{ExternalTask: sub, Category: category, IsSubtask: true}
				child.ParentGID = task.GID
				child.Subtasks = nil
				candidates = append(candidates, child)
			}
		}
	}
	return candidates
}

// buildRow constructs the full field set for one candidate. Every field is
// rewritten on update, so a pass against an unchanged snapshot is a no-op
// apart from the refreshed last-synced timestamp.
func (r *Reconciler) buildRow(processID string, c candidate, emails map[string]string, syncedAt time.Time) *model.LocalTask {
	status := model.StatusActive
	if c.Completed {
		status = model.StatusCompleted
	}

	row := &model.LocalTask{
		ProcessID:    processID,
		Title:        c.Name,
		Description:  c.Notes,
		Category:     c.Category,
		Origin:       model.OriginExternal,
		Status:       status,
		AssigneeName: c.AssigneeName,
		AssigneeGID:  c.AssigneeGID,
		DueOn:        c.DueOn,
		Completed:    c.Completed,
		CompletedAt:  c.CompletedAt,
		SectionName:  c.SectionName,
		SectionGID:   c.SectionGID,
		ParentGID:    c.ParentGID,
		IsSubtask:    c.IsSubtask,
		ExternalGID:  c.GID,
		PermalinkURL: c.PermalinkURL,
		UpdatedAt:    syncedAt,
	}
	if email, ok := emails[c.AssigneeGID]; ok {
		row.AssigneeEmail = email
	}
	lastSynced := syncedAt
	row.LastSyncedAt = &lastSynced
	return row
}
