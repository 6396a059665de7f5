package tui

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/config"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/store"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

type statusCall struct {
	id     int
	status task.Status
}

// memGateway is an in-memory store.Gateway that records writes.
type memGateway struct {
	mu       sync.Mutex
	tasks    []task.Task
	moves    []statusCall
	deleted  []int
	subtasks map[int]bool
}

func (g *memGateway) ListTasks(context.Context) ([]task.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.tasks), nil
}

func (g *memGateway) GetTask(_ context.Context, id int) (task.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tasks[task.IndexByID(g.tasks, id)], nil
}

func (g *memGateway) CreateTask(_ context.Context, draft task.Task) (task.Task, error) {
	return draft, nil
}

func (g *memGateway) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	return t, nil
}

func (g *memGateway) UpdateTaskStatus(_ context.Context, id int, status task.Status) (task.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moves = append(g.moves, statusCall{id, status})
	t := g.tasks[task.IndexByID(g.tasks, id)]
	t.Status = status
	return t, nil
}

func (g *memGateway) UpdateSubtaskStatus(_ context.Context, subtaskID int, done bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subtasks == nil {
		g.subtasks = map[int]bool{}
	}
	g.subtasks[subtaskID] = done
	return nil
}

func (g *memGateway) DeleteTask(_ context.Context, id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *memGateway) recordedMoves() []statusCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.moves)
}

func mk(id int, title string, status task.Status) task.Task {
	t := task.Task{
		ID:       id,
		Title:    title,
		Category: task.CategoryUserStory,
		Status:   status,
		Priority: task.PriorityMedium,
		DueDate:  date.New(2030, time.January, 1),
	}
	t.Normalize()
	return t
}

func newTestBoard(t *testing.T) (*Board, *memGateway) {
	t.Helper()
	withSubs := mk(3, "Write docs", task.StatusTodo)
	withSubs.Subtasks = []task.Subtask{{ID: 30, Title: "outline"}, {ID: 31, Title: "draft"}}
	withSubs.Normalize()

	gw := &memGateway{tasks: []task.Task{
		mk(5, "Fix login bug", task.StatusTodo),
		mk(6, "Design review", task.StatusInProgress),
		withSubs,
		mk(8, "Bug bash", task.StatusDone),
	}}
	st := store.New(gw)
	b := NewBoard(config.NewDefault(), st)
	run(t, b, b.Init())
	b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return b, gw
}

// run executes cmd and feeds its message back into the board.
func run(t *testing.T, b *Board, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		b.Update(msg)
	}
}

func press(b *Board, keys ...string) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, last = b.Update(msg)
	}
	return last
}

func columnIDs(b *Board, status task.Status) []int {
	for _, c := range b.columns {
		if c.status == status {
			ids := make([]int, len(c.tasks))
			for i, t := range c.tasks {
				ids[i] = t.ID
			}
			return ids
		}
	}
	return nil
}

func TestBoardLoadsColumns(t *testing.T) {
	b, _ := newTestBoard(t)
	if got := columnIDs(b, task.StatusTodo); !slices.Equal(got, []int{5, 3}) {
		t.Errorf("todo = %v", got)
	}
	if got := columnIDs(b, task.StatusDone); !slices.Equal(got, []int{8}) {
		t.Errorf("done = %v", got)
	}
	if view := b.View(); !strings.Contains(view, "To do (2)") || !strings.Contains(view, "Fix login bug") {
		t.Errorf("view missing column or card:\n%s", view)
	}
}

func TestSearchFiltersColumns(t *testing.T) {
	b, _ := newTestBoard(t)
	press(b, "/", "b", "u", "g")

	if got := columnIDs(b, task.StatusTodo); !slices.Equal(got, []int{5}) {
		t.Errorf("todo = %v", got)
	}
	if got := columnIDs(b, task.StatusDone); !slices.Equal(got, []int{8}) {
		t.Errorf("done = %v", got)
	}
	if got := columnIDs(b, task.StatusInProgress); len(got) != 0 {
		t.Errorf("in progress = %v", got)
	}

	press(b, "esc")
	if got := columnIDs(b, task.StatusTodo); len(got) != 2 {
		t.Errorf("after clearing: todo = %v", got)
	}
}

func TestKeyboardDragDropsOnce(t *testing.T) {
	b, gw := newTestBoard(t)

	press(b, "m", "right", "right", "left")
	if st := b.drag.State(); st.Phase != board.DragHovering || st.Column != task.StatusInProgress || st.TaskID != 5 {
		t.Fatalf("state = %+v", st)
	}
	press(b, "enter")
	b.drag.Wait()

	moves := gw.recordedMoves()
	if len(moves) != 1 || moves[0] != (statusCall{5, task.StatusInProgress}) {
		t.Fatalf("moves = %v", moves)
	}
	if b.drag.State().Phase != board.DragIdle {
		t.Error("controller not idle after drop")
	}

	b.Update(SnapshotMsg{Tasks: b.store.Snapshot()})
	if got := columnIDs(b, task.StatusInProgress); !slices.Contains(got, 5) {
		t.Errorf("in progress = %v", got)
	}
}

func TestKeyboardDragCancel(t *testing.T) {
	b, gw := newTestBoard(t)
	press(b, "m", "right", "esc")
	b.drag.Wait()
	if len(gw.recordedMoves()) != 0 {
		t.Error("cancelled drag issued an update")
	}
}

func TestMouseDrag(t *testing.T) {
	b, gw := newTestBoard(t)
	// 120 columns wide: four 30-cell columns. Row 0 is the header.
	b.Update(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if st := b.drag.State(); st.Phase != board.DragDragging || st.TaskID != 5 {
		t.Fatalf("after press: %+v", st)
	}
	b.Update(tea.MouseMsg{X: 95, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	b.Update(tea.MouseMsg{X: 35, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	b.Update(tea.MouseMsg{X: 35, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
	b.drag.Wait()

	moves := gw.recordedMoves()
	if len(moves) != 1 || moves[0] != (statusCall{5, task.StatusInProgress}) {
		t.Fatalf("moves = %v", moves)
	}
}

func TestMouseClickWithoutMoveIsNoop(t *testing.T) {
	b, gw := newTestBoard(t)
	b.Update(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	b.Update(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
	b.drag.Wait()
	if len(gw.recordedMoves()) != 0 {
		t.Error("click issued an update")
	}
	if b.drag.State().Phase != board.DragIdle {
		t.Error("drag not ended")
	}
}

func TestDeleteConfirmation(t *testing.T) {
	b, gw := newTestBoard(t)
	press(b, "d")
	if b.view != viewConfirmDelete || b.deleteID != 5 {
		t.Fatalf("view = %v, deleteID = %d", b.view, b.deleteID)
	}
	run(t, b, press(b, "y"))

	if !slices.Equal(gw.deleted, []int{5}) {
		t.Errorf("deleted = %v", gw.deleted)
	}
	if got := columnIDs(b, task.StatusTodo); !slices.Equal(got, []int{3}) {
		t.Errorf("todo = %v", got)
	}
}

func TestDetailTogglesSubtask(t *testing.T) {
	b, gw := newTestBoard(t)
	press(b, "j", "enter")
	if b.view != viewDetail || b.detailID != 3 {
		t.Fatalf("view = %v, detail = %d", b.view, b.detailID)
	}
	run(t, b, press(b, "j", " "))

	if done, ok := gw.subtasks[31]; !ok || !done {
		t.Errorf("subtask calls = %v", gw.subtasks)
	}
	if got := b.detailTask(); got == nil || got.SubtasksProgress != 1 {
		t.Errorf("detail task = %+v", got)
	}
	press(b, "esc")
	if b.view != viewBoard {
		t.Error("esc did not return to the board")
	}
}

func TestToastExpires(t *testing.T) {
	b, _ := newTestBoard(t)
	b.Update(ToastMsg{Text: "Something went wrong updating the task status"})
	if !strings.Contains(b.View(), "Something went wrong") {
		t.Error("toast not shown")
	}
	b.Update(toastExpiredMsg{seq: b.toastSeq - 1})
	if b.toast == "" {
		t.Error("stale expiry cleared the toast")
	}
	b.Update(toastExpiredMsg{seq: b.toastSeq})
	if b.toast != "" {
		t.Error("toast not cleared")
	}
}

func TestWrapTitle(t *testing.T) {
	got := wrapTitle("one two three four", 9, 2)
	if len(got) != 2 || got[0] != "one two" {
		t.Errorf("got %q", got)
	}
	if got := wrapTitle("short", 20, 2); len(got) != 1 {
		t.Errorf("got %q", got)
	}
}

func TestToasterFallsBackWhenDetached(t *testing.T) {
	var got []string
	toaster := NewToaster(store.ReporterFunc(func(m string) { got = append(got, m) }))
	toaster.ShowError("boom")
	if !slices.Equal(got, []string{"boom"}) {
		t.Errorf("got %v", got)
	}
}
