package task

import (
	"encoding/json"
	"testing"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
)

func validDraft() Task {
	return Task{
		Title:    "Write docs",
		Category: CategoryUserStory,
		Status:   StatusTodo,
		Priority: PriorityMedium,
		DueDate:  date.New(2026, 11, 1),
		Subtasks: []Subtask{{Title: "outline"}},
	}
}

func TestProgressWithinBounds(t *testing.T) {
	cases := [][]bool{
		nil,
		{false},
		{true},
		{true, false, true},
		{true, true, true, true},
	}
	for _, statuses := range cases {
		tk := Task{}
		for i, s := range statuses {
			tk.Subtasks = append(tk.Subtasks, Subtask{ID: i + 1, Title: "s", Status: s})
		}
		got := tk.Progress()
		if got < 0 || got > len(tk.Subtasks) {
			t.Fatalf("Progress() = %d, want within [0,%d]", got, len(tk.Subtasks))
		}
	}
}

func TestNormalizeOverridesUntrustedProgress(t *testing.T) {
	tk := Task{
		Subtasks:         []Subtask{{ID: 1, Title: "a", Status: true}, {ID: 2, Title: "b"}},
		SubtasksProgress: 7,
	}
	tk.Normalize()
	if tk.SubtasksProgress != 1 {
		t.Errorf("SubtasksProgress = %d, want 1", tk.SubtasksProgress)
	}
	if tk.Members == nil {
		t.Error("Members should be non-nil after Normalize")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Task{
		ID:       1,
		Members:  []Member{{ID: 3}},
		Subtasks: []Subtask{{ID: 9, Title: "x"}},
	}
	c := orig.Clone()
	c.Members[0].ID = 99
	c.Subtasks[0].Status = true

	if orig.Members[0].ID != 3 {
		t.Error("clone shares Members with original")
	}
	if orig.Subtasks[0].Status {
		t.Error("clone shares Subtasks with original")
	}
}

func TestValidate(t *testing.T) {
	d := validDraft()
	if err := Validate(&d); err != nil {
		t.Fatalf("Validate(valid) = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Task)
		code   string
	}{
		{"empty title", func(t *Task) { t.Title = "  " }, clierr.ValidationFailed},
		{"bad category", func(t *Task) { t.Category = "epic" }, clierr.InvalidCategory},
		{"bad status", func(t *Task) { t.Status = "archived" }, clierr.InvalidStatus},
		{"bad priority", func(t *Task) { t.Priority = "urgent" }, clierr.InvalidPriority},
		{"no due date", func(t *Task) { t.DueDate = date.Date{} }, clierr.ValidationFailed},
		{"empty subtask", func(t *Task) { t.Subtasks = []Subtask{{Title: ""}} }, clierr.ValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := Validate(&d)
			if got := clierr.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}
}

func TestValidateStoredTaskWithoutDueDate(t *testing.T) {
	d := validDraft()
	d.ID = 7
	d.DueDate = date.Date{}
	if err := Validate(&d); err != nil {
		t.Errorf("Validate(stored, no due date) = %v", err)
	}
}

func TestTaskJSONShape(t *testing.T) {
	d := validDraft()
	d.Normalize()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["id"]; ok {
		t.Error("draft should omit id")
	}
	if m["due_date"] != "2026-11-01" {
		t.Errorf("due_date = %v", m["due_date"])
	}
	if _, ok := m["members"].([]any); !ok {
		t.Errorf("members = %#v, want array", m["members"])
	}
}

func TestMemberNames(t *testing.T) {
	m := Member{User: User{FirstName: "ada", LastName: "Lovelace"}}
	if got := m.FullName(); got != "ada Lovelace" {
		t.Errorf("FullName() = %q", got)
	}
	if got := m.Initials(); got != "AL" {
		t.Errorf("Initials() = %q", got)
	}

	byUsername := Member{User: User{Username: "ärger"}}
	if got := byUsername.Initials(); got != "Ä" {
		t.Errorf("Initials() from username = %q", got)
	}
}
