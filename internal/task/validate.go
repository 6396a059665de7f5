package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
)

// ValidateStatus checks that a status is one of the board columns.
func ValidateStatus(status Status) error {
	if StatusIndex(status) >= 0 {
		return nil
	}
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", status).
		WithDetails(map[string]any{
			"status":  status,
			"allowed": Statuses,
		})
}

// ValidatePriority checks that a priority is known.
func ValidatePriority(priority Priority) error {
	if PriorityIndex(priority) >= 0 {
		return nil
	}
	return clierr.Newf(clierr.InvalidPriority, "invalid priority %q", priority).
		WithDetails(map[string]any{
			"priority": priority,
			"allowed":  Priorities,
		})
}

// ValidateCategory checks that a category is known.
func ValidateCategory(category Category) error {
	for _, c := range Categories {
		if c == category {
			return nil
		}
	}
	return clierr.Newf(clierr.InvalidCategory, "invalid category %q", category).
		WithDetails(map[string]any{
			"category": category,
			"allowed":  Categories,
		})
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID returns a CLIError for invalid task ID input.
func ValidateTaskID(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", input).
		WithDetails(map[string]any{"input": input})
}

// NotFound returns the error for a task id missing from the collection.
func NotFound(id int) *clierr.Error {
	return clierr.Newf(clierr.TaskNotFound, "task not found: #%d", id).
		WithDetails(map[string]any{"id": id})
}

// SubtaskNotFound returns the error for a subtask id missing from its task.
func SubtaskNotFound(taskID, subtaskID int) *clierr.Error {
	return clierr.Newf(clierr.SubtaskNotFound, "subtask #%d not found on task #%d", subtaskID, taskID).
		WithDetails(map[string]any{"task_id": taskID, "subtask_id": subtaskID})
}

// ValidateSubtaskTitle rejects blank subtask titles.
func ValidateSubtaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return clierr.New(clierr.ValidationFailed, "subtask title must not be empty")
	}
	return nil
}

// Validate checks the fields the backend requires before any request is
// sent: a title, known enums, non-empty subtask titles and, for a new
// task, a due date. Stored tasks may come back from the backend without one.
func Validate(t *Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return clierr.New(clierr.ValidationFailed, "title must not be empty")
	}
	if err := ValidateCategory(t.Category); err != nil {
		return err
	}
	if err := ValidateStatus(t.Status); err != nil {
		return err
	}
	if err := ValidatePriority(t.Priority); err != nil {
		return err
	}
	if t.IsDraft() && t.DueDate.IsZero() {
		return clierr.New(clierr.ValidationFailed, "due date is required")
	}
	for i, s := range t.Subtasks {
		if err := ValidateSubtaskTitle(s.Title); err != nil {
			return clierr.Newf(clierr.ValidationFailed, "subtask %d: title must not be empty", i+1).
				WithDetails(map[string]any{"index": i})
		}
	}
	return nil
}
