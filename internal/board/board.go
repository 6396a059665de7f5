package board

import (
	"cmp"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// ListOptions controls how tasks are listed.
type ListOptions struct {
	Filter  FilterOptions
	SortBy  string
	Reverse bool
	Limit   int
}

// List applies filters, sorting and the limit to a store snapshot.
func List(tasks []task.Task, opts ListOptions) []task.Task {
	result := Filter(tasks, opts.Filter)

	sortField := opts.SortBy
	if sortField == "" {
		sortField = fieldID
	}
	Sort(result, sortField, opts.Reverse)

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// StatusSummary holds metrics for a single status column.
type StatusSummary struct {
	Status  task.Status `json:"status"`
	Count   int         `json:"count"`
	Overdue int         `json:"overdue"`
}

// PriorityCount holds a count for a priority level.
type PriorityCount struct {
	Priority task.Priority `json:"priority"`
	Count    int           `json:"count"`
}

// Overview is the aggregate board overview.
type Overview struct {
	BoardName  string          `json:"board_name"`
	Username   string          `json:"username,omitempty"`
	TotalTasks int             `json:"total_tasks"`
	Statuses   []StatusSummary `json:"statuses"`
	Priorities []PriorityCount `json:"priorities"`
	Upcoming   *task.Task      `json:"upcoming,omitempty"`
}

// Summary counts tasks per column and priority and picks the upcoming
// task. A task is overdue when its due date is before now and it is not done.
func Summary(boardName string, tasks []task.Task, now time.Time) Overview {
	statusMap := make(map[task.Status]*StatusSummary, len(task.Statuses))
	for _, s := range task.Statuses {
		statusMap[s] = &StatusSummary{Status: s}
	}
	prioMap := make(map[task.Priority]int, len(task.Priorities))
	today := date.Of(now)

	for _, t := range tasks {
		if ss, ok := statusMap[t.Status]; ok {
			ss.Count++
			if !t.DueDate.IsZero() && t.DueDate.Before(today.Time) && t.Status != task.StatusDone {
				ss.Overdue++
			}
		}
		prioMap[t.Priority]++
	}

	statuses := make([]StatusSummary, 0, len(task.Statuses))
	for _, s := range task.Statuses {
		statuses = append(statuses, *statusMap[s])
	}

	// Highest priority first.
	priorities := make([]PriorityCount, 0, len(task.Priorities))
	for i := len(task.Priorities) - 1; i >= 0; i-- {
		p := task.Priorities[i]
		priorities = append(priorities, PriorityCount{Priority: p, Count: prioMap[p]})
	}

	return Overview{
		BoardName:  boardName,
		TotalTasks: len(tasks),
		Statuses:   statuses,
		Priorities: priorities,
		Upcoming:   Upcoming(tasks),
	}
}

// Upcoming returns the open task to look at next: highest priority first,
// then earliest due date. It returns nil when every task is done.
func Upcoming(tasks []task.Task) *task.Task {
	var best *task.Task
	for i := range tasks {
		t := &tasks[i]
		if t.Status == task.StatusDone {
			continue
		}
		if best == nil || compareUrgency(t, best) < 0 {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	c := best.Clone()
	return &c
}

func compareUrgency(a, b *task.Task) int {
	if c := cmp.Compare(task.PriorityIndex(b.Priority), task.PriorityIndex(a.Priority)); c != 0 {
		return c
	}
	return a.DueDate.Compare(b.DueDate)
}

// CountByStatus returns the number of tasks in each status.
func CountByStatus(tasks []task.Task) map[task.Status]int {
	counts := make(map[task.Status]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

// ParseIDs splits a comma-separated ID string into deduplicated int IDs.
func ParseIDs(arg string) ([]int, error) {
	parts := strings.Split(arg, ",")
	seen := make(map[int]bool, len(parts))
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, task.ValidateTaskID(p)
		}
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidTaskID, "no valid task IDs provided")
	}
	return ids, nil
}
