package board

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

const unassignedKey = "(unassigned)"

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key      string          `json:"key"`
	Statuses []StatusSummary `json:"statuses"`
	Total    int             `json:"total"`
}

// GroupBy groups tasks by the specified field and returns per-column counts
// for every group. A task with several members counts once per member.
func GroupBy(tasks []task.Task, field string) GroupedSummary {
	groups := make(map[string][]task.Task)
	for _, t := range tasks {
		for _, key := range extractGroupKeys(&t, field) {
			groups[key] = append(groups[key], t)
		}
	}

	keys := sortGroupKeys(groups, field)
	result := GroupedSummary{Groups: make([]GroupSummary, 0, len(keys))}
	for _, key := range keys {
		groupTasks := groups[key]
		result.Groups = append(result.Groups, GroupSummary{
			Key:      key,
			Statuses: groupStatusSummary(groupTasks),
			Total:    len(groupTasks),
		})
	}
	return result
}

func extractGroupKeys(t *task.Task, field string) []string {
	switch field {
	case fieldMember:
		if len(t.Members) == 0 {
			return []string{unassignedKey}
		}
		keys := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			name := m.FullName()
			if name == "" {
				name = m.User.Username
			}
			if name == "" {
				name = "#" + strconv.Itoa(m.ID)
			}
			keys = append(keys, name)
		}
		return keys
	case fieldCategory:
		return []string{string(t.Category)}
	case fieldPriority:
		return []string{string(t.Priority)}
	case fieldStatus:
		return []string{string(t.Status)}
	default:
		return []string{"(all)"}
	}
}

func sortGroupKeys(groups map[string][]task.Task, field string) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}

	switch field {
	case fieldStatus:
		slices.SortStableFunc(keys, func(a, b string) int {
			return cmp.Compare(task.StatusIndex(task.Status(a)), task.StatusIndex(task.Status(b)))
		})
	case fieldPriority:
		// Highest first, like the summary.
		slices.SortStableFunc(keys, func(a, b string) int {
			return cmp.Compare(task.PriorityIndex(task.Priority(b)), task.PriorityIndex(task.Priority(a)))
		})
	default:
		slices.Sort(keys)
	}
	return keys
}

func groupStatusSummary(tasks []task.Task) []StatusSummary {
	counts := CountByStatus(tasks)
	statuses := make([]StatusSummary, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		statuses = append(statuses, StatusSummary{Status: s, Count: counts[s]})
	}
	return statuses
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{fieldMember, fieldCategory, fieldPriority, fieldStatus}
}
