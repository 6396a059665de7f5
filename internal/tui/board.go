// Package tui implements the terminal board for taskdeck.
package tui

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/config"
	"github.com/twiced-technology-gmbh/taskdeck/internal/store"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// view represents the current screen state.
type view int

const (
	viewBoard view = iota
	viewDetail
	viewConfirmDelete
)

// Key and layout constants.
const (
	keyEsc   = "esc"
	keyEnter = "enter"

	boardChrome = 2 // blank line + status bar below the column area
	toastChrome = 1 // extra line when a toast is displayed
	toastTTL    = 4 * time.Second
)

// Board is the top-level bubbletea model.
type Board struct {
	cfg      *config.Config
	store    *store.Store
	drag     *board.DragController
	ctx      context.Context
	logger   *slog.Logger
	username string

	tasks     []task.Task
	columns   []column
	activeCol int
	activeRow int
	view      view
	width     int
	height    int
	now       func() time.Time

	search    textinput.Model
	searching bool

	toast    string
	toastSeq int

	// Delete confirmation.
	deleteID    int
	deleteTitle string

	// Detail view.
	detailID  int
	detailRow int

	// Keyboard drag hover position; -1 when not hovering.
	hoverCol int
}

// column holds the visible tasks of one status.
type column struct {
	status    task.Status
	tasks     []task.Task
	scrollOff int // first visible row index
}

// Option configures a Board.
type Option func(*Board)

// WithContext sets the context store calls run with.
func WithContext(ctx context.Context) Option {
	return func(b *Board) { b.ctx = ctx }
}

// WithLogger sets the logger for failed background operations.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithUsername shows the signed-in user in the status bar.
func WithUsername(name string) Option {
	return func(b *Board) { b.username = name }
}

// NewBoard creates a board showing the store's current snapshot.
func NewBoard(cfg *config.Config, st *store.Store, opts ...Option) *Board {
	search := textinput.New()
	search.Placeholder = "Find task"
	search.Prompt = "/ "
	search.CharLimit = 100

	b := &Board{
		cfg:      cfg,
		store:    st,
		ctx:      context.Background(),
		now:      time.Now,
		search:   search,
		hoverCol: -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	b.drag = board.NewDragController(st, board.WithDragLogger(b.logger), board.WithDragContext(b.ctx))
	b.setTasks(st.Snapshot())
	return b
}

// SetNow overrides the clock (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
}

// Drag exposes the drag controller, mainly so callers can wait for drops.
func (b *Board) Drag() *board.DragController {
	return b.drag
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return b.loadCmd()
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.search.Width = max(msg.Width/3, 10) //nolint:mnd // search box share of the width
		b.clampRow()
		return b, nil
	case SnapshotMsg:
		b.setTasks(msg.Tasks)
		return b, nil
	case ReloadMsg:
		return b, b.loadCmd()
	case ToastMsg:
		b.toastSeq++
		b.toast = msg.Text
		seq := b.toastSeq
		return b, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
	case toastExpiredMsg:
		if msg.seq == b.toastSeq {
			b.toast = ""
		}
		return b, nil
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}

	switch b.view {
	case viewDetail:
		return b.viewDetail()
	case viewConfirmDelete:
		return b.viewDeleteConfirm()
	default:
		return b.viewBoard()
	}
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		return b, tea.Quit
	}

	switch b.view {
	case viewBoard:
		if b.searching {
			return b.handleSearchKey(msg)
		}
		if b.drag.State().Phase != board.DragIdle {
			return b.handleDragKey(msg)
		}
		return b.handleBoardKey(msg)
	case viewDetail:
		return b.handleDetailKey(msg)
	case viewConfirmDelete:
		return b.handleDeleteKey(msg)
	}
	return b, nil
}

func (b *Board) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return b, tea.Quit
	case keyEsc:
		if b.search.Value() != "" {
			b.search.SetValue("")
			b.rebuildColumns()
			return b, nil
		}
		return b, tea.Quit
	case "h", "left":
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case "l", "right":
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case "j", "down":
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.tasks)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case "k", "up":
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case "/":
		b.searching = true
		return b, b.search.Focus()
	case "m":
		if t := b.selectedTask(); t != nil {
			b.drag.Start(t.ID)
			b.hoverCol = -1
		}
	case keyEnter:
		if t := b.selectedTask(); t != nil {
			b.detailID = t.ID
			b.detailRow = 0
			b.view = viewDetail
		}
	case "d", "D":
		if t := b.selectedTask(); t != nil {
			b.deleteID = t.ID
			b.deleteTitle = t.Title
			b.view = viewConfirmDelete
		}
	case "r":
		return b, b.loadCmd()
	}
	return b, nil
}

func (b *Board) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc:
		b.search.SetValue("")
		b.search.Blur()
		b.searching = false
		b.rebuildColumns()
		return b, nil
	case keyEnter:
		b.search.Blur()
		b.searching = false
		return b, nil
	}
	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	b.rebuildColumns()
	return b, cmd
}

// handleDragKey moves a card picked up with "m": left/right hover a column,
// enter drops, esc cancels.
func (b *Board) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		b.hover(b.hoverStart() - 1)
	case "l", "right":
		b.hover(b.hoverStart() + 1)
	case keyEnter:
		b.drag.Drop()
		b.hoverCol = -1
	case keyEsc, "m":
		b.drag.End()
		b.hoverCol = -1
	}
	return b, nil
}

func (b *Board) hoverStart() int {
	if b.hoverCol >= 0 {
		return b.hoverCol
	}
	return b.activeCol
}

func (b *Board) hover(col int) {
	if col < 0 || col >= len(b.columns) {
		return
	}
	if b.hoverCol >= 0 {
		b.drag.Leave(b.columns[b.hoverCol].status)
	}
	b.hoverCol = col
	b.drag.Enter(b.columns[col].status)
}

func (b *Board) handleDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		b.view = viewBoard
		return b, b.deleteCmd(b.deleteID)
	case "n", "N", keyEsc, "q":
		b.view = viewBoard
	}
	return b, nil
}

// handleMouse turns a left press on a card into a drag, motion into column
// hovers and the release into a drop.
func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if b.view != viewBoard || (msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease) {
		return b, nil
	}

	colIdx := b.columnAt(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if colIdx < 0 {
			return b, nil
		}
		b.activeCol = colIdx
		row := b.rowAt(colIdx, msg.Y)
		if row < 0 {
			b.clampRow()
			return b, nil
		}
		b.activeRow = row
		b.ensureVisible()
		b.drag.Start(b.columns[colIdx].tasks[row].ID)
		b.hoverCol = -1
	case tea.MouseActionMotion:
		if b.drag.State().Phase == board.DragIdle {
			return b, nil
		}
		if colIdx < 0 {
			if b.hoverCol >= 0 {
				b.drag.Leave(b.columns[b.hoverCol].status)
				b.hoverCol = -1
			}
			return b, nil
		}
		if colIdx != b.hoverCol {
			b.hover(colIdx)
		}
	case tea.MouseActionRelease:
		if b.drag.State().Phase == board.DragHovering {
			b.drag.Drop()
		} else {
			b.drag.End()
		}
		b.hoverCol = -1
	}
	return b, nil
}

// columnAt returns the column under screen x, or -1.
func (b *Board) columnAt(x int) int {
	w := b.columnWidth()
	if x < 0 || w <= 0 {
		return -1
	}
	i := x / w
	if i >= len(b.columns) {
		return -1
	}
	return i
}

// rowAt returns the card index under screen y in column i, or -1.
func (b *Board) rowAt(i, y int) int {
	col := &b.columns[i]
	lineY := y - 1 // column header
	if col.scrollOff > 0 {
		lineY-- // "↑ N more"
	}
	if lineY < 0 {
		return -1
	}
	w := b.columnWidth()
	cardLine := 0
	for rowIdx := col.scrollOff; rowIdx < len(col.tasks); rowIdx++ {
		cardH := b.cardHeight(&col.tasks[rowIdx], w)
		if lineY < cardLine+cardH {
			return rowIdx
		}
		cardLine += cardH
	}
	return -1
}

// setTasks replaces the board's tasks with a store snapshot.
func (b *Board) setTasks(tasks []task.Task) {
	b.tasks = slices.Clone(tasks)
	b.rebuildColumns()
}

// rebuildColumns re-projects the tasks into columns using the search term.
func (b *Board) rebuildColumns() {
	selectedID := 0
	if t := b.selectedTask(); t != nil {
		selectedID = t.ID
	}

	term := b.search.Value()
	prev := b.columns
	b.columns = make([]column, len(task.Statuses))
	for i, status := range task.Statuses {
		b.columns[i] = column{status: status, tasks: board.ColumnTasks(b.tasks, status, term)}
		if i < len(prev) {
			b.columns[i].scrollOff = prev[i].scrollOff
		}
	}

	// Keep the cursor on the same task when it is still in the column.
	if col := b.currentColumn(); col != nil && selectedID != 0 {
		if i := slices.IndexFunc(col.tasks, func(t task.Task) bool { return t.ID == selectedID }); i >= 0 {
			b.activeRow = i
		}
	}
	b.clampRow()
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedTask() *task.Task {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.tasks) {
		return &col.tasks[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.tasks) {
		b.activeRow = len(col.tasks) - 1
	}
	if col.scrollOff >= len(col.tasks) {
		col.scrollOff = 0
	}
	b.ensureVisible()
}

// chromeHeight returns the number of lines consumed by non-card elements below
// the column area: blank line + status bar (+ toast line when one is shown).
func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.toast != "" {
		h += toastChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for scroll indicator lines ("↑ N more" / "↓ N more") that
// consume vertical space.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	// Always need 1 line for column header.
	avail := budget - 1

	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)

	if col.scrollOff+n < len(col.tasks) {
		n = max(b.fitCardsInHeight(col, avail-1, width), 1)
	}
	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil || b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.tasks) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)

		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.tasks) == 0 || avail < 1 {
		return 1
	}

	used := 0
	count := 0
	for i := col.scrollOff; i < len(col.tasks); i++ {
		cardLines := b.cardHeight(&col.tasks[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}
	return max(count, 1)
}

// --- Commands ---

func (b *Board) loadCmd() tea.Cmd {
	st, ctx := b.store, b.ctx
	return func() tea.Msg {
		if err := st.LoadAll(ctx); err != nil {
			return nil
		}
		return SnapshotMsg{Tasks: st.Snapshot()}
	}
}

func (b *Board) deleteCmd(id int) tea.Cmd {
	st, ctx, logger, dir := b.store, b.ctx, b.logger, b.logDir()
	return func() tea.Msg {
		if err := st.Remove(ctx, id); err != nil {
			logger.Debug("delete failed", "id", id, "error", err)
		} else {
			board.LogMutation(dir, "delete", id, "")
		}
		return SnapshotMsg{Tasks: st.Snapshot()}
	}
}

func (b *Board) toggleSubtaskCmd(taskID, subtaskID int, done bool) tea.Cmd {
	st, ctx, logger := b.store, b.ctx, b.logger
	return func() tea.Msg {
		if err := st.UpdateSubtaskStatus(ctx, taskID, subtaskID, done); err != nil {
			logger.Debug("subtask update failed", "task", taskID, "subtask", subtaskID, "error", err)
		}
		return SnapshotMsg{Tasks: st.Snapshot()}
	}
}

func (b *Board) logDir() string {
	if b.cfg == nil {
		return ""
	}
	return b.cfg.Dir()
}

// --- Messages ---

// SnapshotMsg carries a new store snapshot into the program.
type SnapshotMsg struct {
	Tasks []task.Task
}

// ReloadMsg asks the board to fetch every task again.
type ReloadMsg struct{}

// ToastMsg shows a transient error line below the board.
type ToastMsg struct {
	Text string
}

type toastExpiredMsg struct{ seq int }
