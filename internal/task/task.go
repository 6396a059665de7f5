// Package task defines the task, subtask and member model shared by the
// store, the gateway and every view.
package task

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
)

// Status is a board column.
type Status string

// Board statuses in column order.
const (
	StatusTodo          Status = "todo"
	StatusInProgress    Status = "in_progress"
	StatusAwaitFeedback Status = "await_feedback"
	StatusDone          Status = "done"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusAwaitFeedback, StatusDone}

// Category classifies a task.
type Category string

// Task categories.
const (
	CategoryUserStory     Category = "user_story"
	CategoryTechnicalTask Category = "technical_task"
)

// Categories lists every category.
var Categories = []Category{CategoryUserStory, CategoryTechnicalTask}

// Priority is a task's urgency.
type Priority string

// Priorities, lowest first.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// DefaultColor is the card color used when a draft has none.
const DefaultColor = "#2a3647"

// Task is a card on the board. ID is 0 until the backend has persisted it.
type Task struct {
	ID               int        `json:"id,omitempty" yaml:"id,omitempty"`
	Title            string     `json:"title" yaml:"title"`
	Category         Category   `json:"category" yaml:"category"`
	Description      string     `json:"description" yaml:"description,omitempty"`
	Status           Status     `json:"status" yaml:"status"`
	Color            string     `json:"color" yaml:"color,omitempty"`
	Priority         Priority   `json:"priority" yaml:"priority"`
	Members          []Member   `json:"members" yaml:"members,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	DueDate          date.Date  `json:"due_date" yaml:"due_date,omitempty"`
	Checked          bool       `json:"checked" yaml:"checked,omitempty"`
	Subtasks         []Subtask  `json:"subtasks" yaml:"subtasks,omitempty"`
	SubtasksProgress int        `json:"subtasks_progress" yaml:"subtasks_progress"`
}

// Subtask is a checklist item owned by a task.
type Subtask struct {
	ID     int    `json:"id,omitempty" yaml:"id,omitempty"`
	Title  string `json:"title" yaml:"title"`
	Status bool   `json:"status" yaml:"status"`
}

// User is the account wrapped by a Member.
type User struct {
	ID        int    `json:"id" yaml:"id"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
}

// Member is a contact that can be assigned to tasks. Its ID is not the
// nested user's ID.
type Member struct {
	ID          int    `json:"id" yaml:"id"`
	User        User   `json:"user" yaml:"user"`
	PhoneNumber string `json:"phone_number" yaml:"phone_number,omitempty"`
	Color       string `json:"color" yaml:"color,omitempty"`
}

// FullName returns "First Last", trimmed.
func (m Member) FullName() string {
	return strings.TrimSpace(m.User.FirstName + " " + m.User.LastName)
}

// Initials returns up to two uppercase initials for compact display.
func (m Member) Initials() string {
	var b strings.Builder
	for _, part := range []string{m.User.FirstName, m.User.LastName} {
		for _, r := range part {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}
	if b.Len() == 0 && m.User.Username != "" {
		r, _ := utf8.DecodeRuneInString(m.User.Username)
		return strings.ToUpper(string(r))
	}
	return b.String()
}

// IsDraft reports whether the task has not been persisted yet.
func (t *Task) IsDraft() bool {
	return t.ID == 0
}

// Progress counts completed subtasks. It is always within [0, len(Subtasks)].
func (t *Task) Progress() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.Status {
			n++
		}
	}
	return n
}

// Normalize recomputes SubtasksProgress from Subtasks and replaces nil
// slices with empty ones so the task marshals the way the backend expects.
func (t *Task) Normalize() {
	if t.Members == nil {
		t.Members = []Member{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	t.SubtasksProgress = t.Progress()
}

// Clone returns a deep copy; mutating the copy's slices never touches t.
func (t Task) Clone() Task {
	c := t
	c.Members = slices.Clone(t.Members)
	c.Subtasks = slices.Clone(t.Subtasks)
	if t.CreatedAt != nil {
		ts := *t.CreatedAt
		c.CreatedAt = &ts
	}
	return c
}

// MemberIDs returns the ids of the assigned members in order.
func (t *Task) MemberIDs() []int {
	ids := make([]int, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// SubtaskIndex returns the position of the subtask with the given id, or -1.
func (t *Task) SubtaskIndex(id int) int {
	return slices.IndexFunc(t.Subtasks, func(s Subtask) bool { return s.ID == id })
}

// IndexByID returns the position of the task with the given id, or -1.
func IndexByID(tasks []Task, id int) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}

// StatusIndex returns the column position of s, or -1.
func StatusIndex(s Status) int {
	return slices.Index(Statuses, s)
}

// PriorityIndex returns the rank of p (low = 0), or -1.
func PriorityIndex(p Priority) int {
	return slices.Index(Priorities, p)
}
