package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

const (
	fieldID       = "id"
	fieldStatus   = "status"
	fieldPriority = "priority"
	fieldCategory = "category"
	fieldMember   = "member"
	fieldDue      = "due"
	fieldCreated  = "created"
	fieldTitle    = "title"
)

// ValidSortFields returns the accepted --sort values.
func ValidSortFields() []string {
	return []string{fieldID, fieldStatus, fieldPriority, fieldDue, fieldCreated, fieldTitle}
}

// Sort sorts tasks in place by the given field. Status follows board
// column order and priority runs low to high. Unknown fields sort by id.
func Sort(tasks []task.Task, field string, reverse bool) {
	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		c := compareTasks(&a, &b, field)
		if reverse {
			return -c
		}
		return c
	})
}

func compareTasks(a, b *task.Task, field string) int {
	switch field {
	case fieldStatus:
		return cmp.Compare(task.StatusIndex(a.Status), task.StatusIndex(b.Status))
	case fieldPriority:
		return cmp.Compare(task.PriorityIndex(a.Priority), task.PriorityIndex(b.Priority))
	case fieldDue:
		return a.DueDate.Compare(b.DueDate)
	case fieldCreated:
		return compareCreated(a, b)
	case fieldTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// compareCreated orders tasks without a creation time last.
func compareCreated(a, b *task.Task) int {
	switch {
	case a.CreatedAt == nil && b.CreatedAt == nil:
		return 0
	case a.CreatedAt == nil:
		return 1
	case b.CreatedAt == nil:
		return -1
	}
	return a.CreatedAt.Compare(*b.CreatedAt)
}
