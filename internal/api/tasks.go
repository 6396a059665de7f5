package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// taskPayload is a task as the backend accepts it on write: no id, and
// members collapsed to their ids.
type taskPayload struct {
	Title            string         `json:"title"`
	Category         task.Category  `json:"category"`
	Description      string         `json:"description"`
	Status           task.Status    `json:"status"`
	Color            string         `json:"color"`
	Priority         task.Priority  `json:"priority"`
	Members          []int          `json:"members"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	DueDate          date.Date      `json:"due_date"`
	Checked          bool           `json:"checked"`
	Subtasks         []task.Subtask `json:"subtasks"`
	SubtasksProgress int            `json:"subtasks_progress"`
}

func toPayload(t task.Task) taskPayload {
	t = t.Clone()
	t.Normalize()
	return taskPayload{
		Title:            t.Title,
		Category:         t.Category,
		Description:      t.Description,
		Status:           t.Status,
		Color:            t.Color,
		Priority:         t.Priority,
		Members:          t.MemberIDs(),
		CreatedAt:        t.CreatedAt,
		DueDate:          t.DueDate,
		Checked:          t.Checked,
		Subtasks:         t.Subtasks,
		SubtasksProgress: t.SubtasksProgress,
	}
}

type statusPayload struct {
	Status task.Status `json:"status"`
}

type subtaskStatusPayload struct {
	Status bool `json:"status"`
}

func taskPath(id int) string {
	return fmt.Sprintf("/tasks/%d/", id)
}

// ListTasks fetches every task.
func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/", nil, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id int) (task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &t); err != nil {
		return task.Task{}, err
	}
	t.Normalize()
	return t, nil
}

// CreateTask persists a draft and returns the stored task with its new id.
func (c *Client) CreateTask(ctx context.Context, draft task.Task) (task.Task, error) {
	var t task.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", toPayload(draft), &t); err != nil {
		return task.Task{}, err
	}
	t.Normalize()
	return t, nil
}

// UpdateTask patches every writable field of t.
func (c *Client) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(t.ID), toPayload(t), &out); err != nil {
		return task.Task{}, err
	}
	out.Normalize()
	return out, nil
}

// UpdateTaskStatus patches only the status and returns the stored task.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int, status task.Status) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id), statusPayload{Status: status}, &out); err != nil {
		return task.Task{}, err
	}
	out.Normalize()
	return out, nil
}

// UpdateSubtaskStatus patches a single subtask. The response body is ignored.
func (c *Client) UpdateSubtaskStatus(ctx context.Context, subtaskID int, done bool) error {
	path := fmt.Sprintf("/subtask/%d/", subtaskID)
	return c.do(ctx, http.MethodPatch, path, subtaskStatusPayload{Status: done}, nil)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}
