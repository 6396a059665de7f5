package board

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

func mk(id int, title string, status task.Status) task.Task {
	return task.Task{ID: id, Title: title, Status: status, Priority: task.PriorityMedium}
}

func ids(tasks []task.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestColumnTasksSearch(t *testing.T) {
	tasks := []task.Task{
		mk(1, "Fix bug", task.StatusTodo),
		mk(2, "Write docs", task.StatusTodo),
	}

	got := ColumnTasks(tasks, task.StatusTodo, "bug")
	if !reflect.DeepEqual(ids(got), []int{1}) {
		t.Errorf("ColumnTasks(bug) = %v, want [1]", ids(got))
	}
}

func TestColumnTasks(t *testing.T) {
	described := mk(4, "Refactor", task.StatusTodo)
	described.Description = "Remove the BUG tracker"
	tasks := []task.Task{
		mk(1, "Fix bug", task.StatusTodo),
		mk(2, "Write docs", task.StatusTodo),
		mk(3, "Bug bash", task.StatusDone),
		described,
	}

	tests := []struct {
		name   string
		status task.Status
		search string
		want   []int
	}{
		{"empty term matches column", task.StatusTodo, "", []int{1, 2, 4}},
		{"blank term matches column", task.StatusTodo, "   ", []int{1, 2, 4}},
		{"case insensitive", task.StatusTodo, "BUG", []int{1, 4}},
		{"term is trimmed", task.StatusTodo, "  docs ", []int{2}},
		{"other column", task.StatusDone, "bug", []int{3}},
		{"no match", task.StatusInProgress, "", []int{}},
		{"spans title and description", task.StatusTodo, "refactor remove", []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColumnTasks(tasks, tt.status, tt.search)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestColumnTasksIdempotent(t *testing.T) {
	tasks := []task.Task{
		mk(1, "Fix bug", task.StatusTodo),
		mk(2, "Write docs", task.StatusTodo),
		mk(3, "bugfix release", task.StatusTodo),
		mk(4, "Fix bug", task.StatusDone),
	}
	for _, term := range []string{"", "bug", "fix", "zzz"} {
		once := ColumnTasks(tasks, task.StatusTodo, term)
		twice := ColumnTasks(once, task.StatusTodo, term)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("term %q: %v then %v", term, ids(once), ids(twice))
		}
	}
}

func TestFilter(t *testing.T) {
	a := mk(1, "a", task.StatusTodo)
	a.Priority = task.PriorityHigh
	a.Members = []task.Member{{ID: 7}}
	b := mk(2, "b", task.StatusDone)
	b.Category = task.CategoryUserStory
	tasks := []task.Task{a, b}

	tests := []struct {
		name string
		opts FilterOptions
		want []int
	}{
		{"none", FilterOptions{}, []int{1, 2}},
		{"exclude done", FilterOptions{ExcludeStatuses: []task.Status{task.StatusDone}}, []int{1}},
		{"priority", FilterOptions{Priorities: []task.Priority{task.PriorityHigh}}, []int{1}},
		{"category", FilterOptions{Category: task.CategoryUserStory}, []int{2}},
		{"member", FilterOptions{MemberID: 7}, []int{1}},
		{"member absent", FilterOptions{MemberID: 8}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Filter(tasks, tt.opts)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	d := func(day int) date.Date { return date.New(2030, time.March, day) }
	tasks := []task.Task{
		{ID: 3, Title: "b", Status: task.StatusDone, Priority: task.PriorityLow, DueDate: d(2)},
		{ID: 1, Title: "C", Status: task.StatusTodo, Priority: task.PriorityHigh},
		{ID: 2, Title: "a", Status: task.StatusInProgress, Priority: task.PriorityMedium, DueDate: d(1)},
	}

	tests := []struct {
		field   string
		reverse bool
		want    []int
	}{
		{"id", false, []int{1, 2, 3}},
		{"id", true, []int{3, 2, 1}},
		{"status", false, []int{1, 2, 3}},
		{"priority", false, []int{3, 2, 1}},
		{"due", false, []int{2, 3, 1}},
		{"title", false, []int{2, 3, 1}},
		{"bogus", false, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			sorted := append([]task.Task(nil), tasks...)
			Sort(sorted, tt.field, tt.reverse)
			if got := ids(sorted); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2030, time.June, 10, 12, 0, 0, 0, time.UTC)
	past := date.New(2030, time.June, 1)
	soon := date.New(2030, time.June, 12)
	later := date.New(2030, time.July, 1)

	tasks := []task.Task{
		{ID: 1, Status: task.StatusTodo, Priority: task.PriorityMedium, DueDate: past},
		{ID: 2, Status: task.StatusInProgress, Priority: task.PriorityHigh, DueDate: later},
		{ID: 3, Status: task.StatusAwaitFeedback, Priority: task.PriorityHigh, DueDate: soon},
		{ID: 4, Status: task.StatusDone, Priority: task.PriorityHigh, DueDate: past},
	}

	ov := Summary("Join", tasks, now)
	if ov.TotalTasks != 4 || ov.BoardName != "Join" {
		t.Errorf("overview = %+v", ov)
	}
	wantCounts := map[task.Status]int{
		task.StatusTodo: 1, task.StatusInProgress: 1, task.StatusAwaitFeedback: 1, task.StatusDone: 1,
	}
	for _, s := range ov.Statuses {
		if s.Count != wantCounts[s.Status] {
			t.Errorf("%s count = %d, want %d", s.Status, s.Count, wantCounts[s.Status])
		}
		wantOverdue := 0
		if s.Status == task.StatusTodo {
			wantOverdue = 1
		}
		if s.Overdue != wantOverdue {
			t.Errorf("%s overdue = %d, want %d", s.Status, s.Overdue, wantOverdue)
		}
	}
	if ov.Priorities[0].Priority != task.PriorityHigh || ov.Priorities[0].Count != 3 {
		t.Errorf("priorities = %+v, want high first with 3", ov.Priorities)
	}
	if ov.Upcoming == nil || ov.Upcoming.ID != 3 {
		t.Errorf("upcoming = %+v, want task 3", ov.Upcoming)
	}
}

func TestUpcomingNoneOpen(t *testing.T) {
	if got := Upcoming([]task.Task{{ID: 1, Status: task.StatusDone}}); got != nil {
		t.Errorf("Upcoming = %+v, want nil", got)
	}
}

func TestGroupByMember(t *testing.T) {
	ann := task.Member{ID: 1, User: task.User{FirstName: "Ann", LastName: "Lee"}}
	bob := task.Member{ID: 2, User: task.User{FirstName: "Bob"}}
	tasks := []task.Task{
		{ID: 1, Status: task.StatusTodo, Members: []task.Member{ann, bob}},
		{ID: 2, Status: task.StatusDone, Members: []task.Member{ann}},
		{ID: 3, Status: task.StatusDone},
	}

	got := GroupBy(tasks, "member")
	var keys []string
	totals := map[string]int{}
	for _, g := range got.Groups {
		keys = append(keys, g.Key)
		totals[g.Key] = g.Total
	}
	if !reflect.DeepEqual(keys, []string{"(unassigned)", "Ann Lee", "Bob"}) {
		t.Errorf("keys = %v", keys)
	}
	if totals["Ann Lee"] != 2 || totals["Bob"] != 1 {
		t.Errorf("totals = %v", totals)
	}
}

func TestParseIDs(t *testing.T) {
	got, err := ParseIDs("3, 1,3,,2")
	if err != nil {
		t.Fatalf("ParseIDs: %v", err)
	}
	if !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Errorf("got %v", got)
	}
	for _, bad := range []string{"", "x", "0", "1,-2"} {
		if _, err := ParseIDs(bad); err == nil {
			t.Errorf("ParseIDs(%q) succeeded", bad)
		}
	}
}

type updateCall struct {
	id     int
	status task.Status
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []updateCall
	err   error
}

func (f *fakeUpdater) UpdateStatus(_ context.Context, id int, status task.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, updateCall{id, status})
	return f.err
}

func (f *fakeUpdater) recorded() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.calls...)
}

func TestDragDropIssuesOneUpdate(t *testing.T) {
	u := &fakeUpdater{}
	c := NewDragController(u)

	c.Start(5)
	c.Enter(task.StatusDone)
	c.Enter(task.StatusInProgress)
	if !c.Drop() {
		t.Fatal("Drop reported no update")
	}
	c.Wait()

	want := []updateCall{{5, task.StatusInProgress}}
	if got := u.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if st := c.State(); st.Phase != DragIdle {
		t.Errorf("phase = %s, want idle", st.Phase)
	}
}

func TestDragTransitions(t *testing.T) {
	u := &fakeUpdater{}
	c := NewDragController(u)

	c.Enter(task.StatusDone)
	if st := c.State(); st.Phase != DragIdle {
		t.Fatalf("Enter while idle: phase = %s", st.Phase)
	}

	c.Start(1)
	if st := c.State(); st != (DragState{Phase: DragDragging, TaskID: 1}) {
		t.Fatalf("after Start: %+v", st)
	}

	c.Enter(task.StatusDone)
	c.Leave(task.StatusTodo)
	if st := c.State(); st.Phase != DragHovering || st.Column != task.StatusDone {
		t.Fatalf("Leave of another column changed state: %+v", st)
	}

	c.Leave(task.StatusDone)
	if st := c.State(); st != (DragState{Phase: DragDragging, TaskID: 1}) {
		t.Fatalf("after Leave: %+v", st)
	}

	if c.Drop() {
		t.Error("Drop outside a column issued an update")
	}
	if st := c.State(); st.Phase != DragIdle {
		t.Errorf("after Drop: phase = %s", st.Phase)
	}

	c.Start(2)
	c.Enter(task.StatusTodo)
	c.End()
	if c.Drop() {
		t.Error("Drop after End issued an update")
	}
	c.Wait()
	if got := u.recorded(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
}

func TestDragDropFailureIsNotReturned(t *testing.T) {
	u := &fakeUpdater{err: errors.New("boom")}
	c := NewDragController(u)

	c.Start(1)
	c.Enter(task.StatusDone)
	if !c.Drop() {
		t.Fatal("Drop reported no update")
	}
	c.Wait()
	if len(u.recorded()) != 1 {
		t.Errorf("calls = %v", u.recorded())
	}
}

func TestLogMutation(t *testing.T) {
	dir := t.TempDir()
	LogMutation(dir, "move", 1, "todo -> done")
	LogMutation(dir, "delete", 2, "")

	entries, err := ReadLog(dir, 0)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "move" || entries[1].TaskID != 2 {
		t.Errorf("entries = %+v", entries)
	}

	last, _ := ReadLog(dir, 1)
	if len(last) != 1 || last[0].Action != "delete" {
		t.Errorf("limited entries = %+v", last)
	}

	empty, err := ReadLog(t.TempDir(), 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("missing log = %v, %v", empty, err)
	}
}
