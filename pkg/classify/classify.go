// Package classify decides which external tasks enter reconciliation and
// which category their section maps to. Both decisions are pure lookups
// over tables owned by the Classifier, so tests can inject their own.
package classify

import (
	"strings"

	"github.com/malone1029/nia-results-tracker-sub002/pkg/model"
)

// Classifier holds the documentation-task prefix table and the
// section-name to category mapping.
type Classifier struct {
	// DocPrefixes are compared case-insensitively against the start of
	// a trimmed task name. Matching tasks are excluded from sync.
	DocPrefixes []string
	// SectionCategories keys are lowercased section names.
	SectionCategories map[string]model.Category
}

// Default returns the production tables.
//
// The tracker exports ADLI documentation placeholders into the external
// project; their names all start with one of these prefixes. Without the
// filter a sync would re-import the tracker's own exports as duplicates.
func Default() *Classifier {
	return &Classifier{
		DocPrefixes: []string{
			"approach:",
			"deployment:",
			"learning:",
			"integration:",
		},
		SectionCategories: map[string]model.Category{
			"plan":     model.CategoryPlan,
			"do":       model.CategoryExecute,
			"execute":  model.CategoryExecute,
			"check":    model.CategoryEvaluate,
			"study":    model.CategoryEvaluate,
			"evaluate": model.CategoryEvaluate,
			"act":      model.CategoryImprove,
			"adjust":   model.CategoryImprove,
			"improve":  model.CategoryImprove,
		},
	}
}

// IsDocumentationTask reports whether a task name marks an auto-generated
// documentation placeholder.
func (c *Classifier) IsDocumentationTask(name string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range c.DocPrefixes {
		if strings.HasPrefix(trimmed, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

// CategoryForSection maps a section display name to a category.
// Unrecognized names default to plan; there is no failure mode.
func (c *Classifier) CategoryForSection(name string) model.Category {
	if category, ok := c.SectionCategories[strings.ToLower(strings.TrimSpace(name))]; ok {
		return category
	}
	return model.CategoryPlan
}
