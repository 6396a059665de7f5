// Package board provides board-level views over task collections:
// per-column filtering, sorting, summaries and the drag-and-drop flow.
package board

import (
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Statuses        []task.Status
	ExcludeStatuses []task.Status
	Priorities      []task.Priority
	Category        task.Category
	MemberID        int    // 0 = any member
	Search          string // case-insensitive substring of title + description
}

// Filter returns tasks matching all specified criteria (AND logic).
// The input is not modified and order is preserved.
func Filter(tasks []task.Task, opts FilterOptions) []task.Task {
	result := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilter(&t, opts) {
			result = append(result, t)
		}
	}
	return result
}

// ColumnTasks returns the tasks of one board column that match search.
// It derives everything from its arguments, so calling it again on its own
// result with the same term yields the same tasks.
func ColumnTasks(tasks []task.Task, status task.Status, search string) []task.Task {
	return Filter(tasks, FilterOptions{
		Statuses: []task.Status{status},
		Search:   search,
	})
}

// MatchesSearch reports whether the lowercased "title description" contains
// the trimmed, lowercased term. A blank term matches every task.
func MatchesSearch(t *task.Task, term string) bool {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return true
	}
	haystack := strings.ToLower(t.Title + " " + t.Description)
	return strings.Contains(haystack, q)
}

func matchesFilter(t *task.Task, opts FilterOptions) bool {
	if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, t.Status) {
		return false
	}
	if slices.Contains(opts.ExcludeStatuses, t.Status) {
		return false
	}
	if len(opts.Priorities) > 0 && !slices.Contains(opts.Priorities, t.Priority) {
		return false
	}
	if opts.Category != "" && t.Category != opts.Category {
		return false
	}
	if opts.MemberID != 0 && !slices.Contains(t.MemberIDs(), opts.MemberID) {
		return false
	}
	return MatchesSearch(t, opts.Search)
}
