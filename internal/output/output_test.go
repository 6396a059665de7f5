package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

func sampleTask() task.Task {
	return task.Task{
		ID:       7,
		Title:    "Fix login bug",
		Status:   task.StatusInProgress,
		Priority: task.PriorityHigh,
		Category: task.CategoryTechnicalTask,
		DueDate:  date.New(2026, 5, 4),
		Members: []task.Member{
			{ID: 1, User: task.User{FirstName: "Anja", LastName: "Schulz"}},
		},
		Subtasks:         []task.Subtask{{ID: 3, Title: "repro", Status: true}, {ID: 4, Title: "patch"}},
		SubtasksProgress: 1,
	}
}

func TestDetect(t *testing.T) {
	t.Setenv(EnvOutput, "")
	if Detect(true, true, true) != FormatJSON {
		t.Error("json flag should win")
	}
	if Detect(false, true, true) != FormatCompact {
		t.Error("compact should beat table")
	}
	if Detect(false, false, false) != FormatTable {
		t.Error("default should be table")
	}
	t.Setenv(EnvOutput, "oneline")
	if Detect(false, false, false) != FormatCompact {
		t.Error("env oneline should select compact")
	}
}

func TestFormatTaskLine(t *testing.T) {
	tk := sampleTask()
	got := formatTaskLine(&tk)
	want := "#7 [in_progress/high] Fix login bug (Anja Schulz) 1/2 due:2026-05-04"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestTaskTablePlain(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	TaskTable(&buf, []task.Task{sampleTask()})
	out := buf.String()
	for _, want := range []string{"ID", "STATUS", "in_progress", "Anja Schulz", "1/2", "2026-05-04"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestOverviewCompact(t *testing.T) {
	tasks := []task.Task{sampleTask()}
	ov := board.Summary("Join", tasks, date.New(2026, 5, 1).Time)
	var buf bytes.Buffer
	OverviewCompact(&buf, ov)
	out := buf.String()
	if !strings.HasPrefix(out, "Join (1 tasks) Welcome, Guest") {
		t.Errorf("header = %q", out)
	}
	if !strings.Contains(out, "in_progress: 1") || !strings.Contains(out, "Upcoming: #7") {
		t.Errorf("overview:\n%s", out)
	}
}

func TestGreeting(t *testing.T) {
	if Greeting("sofia") != "Welcome, sofia" || Greeting("") != "Welcome, Guest" {
		t.Error("unexpected greeting")
	}
}

func TestCategoryLabel(t *testing.T) {
	if CategoryLabel(task.CategoryUserStory) != "User Story" {
		t.Error("user story label")
	}
	if CategoryLabel("other") != "other" {
		t.Error("unknown category should pass through")
	}
}
