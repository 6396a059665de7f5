package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// DragPhase is the phase of a drag-and-drop interaction.
type DragPhase int

// Drag phases.
const (
	DragIdle DragPhase = iota
	DragDragging
	DragHovering
)

func (p DragPhase) String() string {
	switch p {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	case DragHovering:
		return "hovering"
	default:
		return fmt.Sprintf("DragPhase(%d)", int(p))
	}
}

// DragState is a snapshot of the controller. TaskID is set while dragging
// or hovering; Column only while hovering.
type DragState struct {
	Phase  DragPhase
	TaskID int
	Column task.Status
}

// StatusUpdater applies a dropped card's new status. *store.Store satisfies it.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int, status task.Status) error
}

// DragController tracks a single drag at a time and turns a drop on a
// column into one status update.
type DragController struct {
	updater StatusUpdater
	logger  *slog.Logger
	ctx     context.Context

	mu       sync.Mutex
	state    DragState
	inflight sync.WaitGroup
}

// DragOption configures a DragController.
type DragOption func(*DragController)

// WithDragLogger sets the logger failed drops are written to.
func WithDragLogger(l *slog.Logger) DragOption {
	return func(c *DragController) { c.logger = l }
}

// WithDragContext sets the context drop updates run with.
func WithDragContext(ctx context.Context) DragOption {
	return func(c *DragController) { c.ctx = ctx }
}

// NewDragController returns an idle controller.
func NewDragController(u StatusUpdater, opts ...DragOption) *DragController {
	c := &DragController{updater: u, ctx: context.Background()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// State returns the current state.
func (c *DragController) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start picks up a card. A drag that was never ended is replaced.
func (c *DragController) Start(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = DragState{Phase: DragDragging, TaskID: id}
}

// Enter hovers the dragged card over column, replacing any earlier column.
// It does nothing while idle.
func (c *DragController) Enter(column task.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == DragIdle {
		return
	}
	c.state = DragState{Phase: DragHovering, TaskID: c.state.TaskID, Column: column}
}

// Leave stops hovering column. Leaving a column other than the hovered one
// is ignored.
func (c *DragController) Leave(column task.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != DragHovering || c.state.Column != column {
		return
	}
	c.state = DragState{Phase: DragDragging, TaskID: c.state.TaskID}
}

// Drop releases the card. While hovering it returns to idle and issues
// exactly one status update in the background; failures are logged, not
// returned. It reports whether an update was issued.
func (c *DragController) Drop() bool {
	c.mu.Lock()
	st := c.state
	c.state = DragState{}
	if st.Phase != DragHovering {
		c.mu.Unlock()
		return false
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		if err := c.updater.UpdateStatus(c.ctx, st.TaskID, st.Column); err != nil {
			c.logger.Error("moving task failed", "id", st.TaskID, "status", st.Column, "error", err)
			return
		}
		c.logger.Debug("task moved", "id", st.TaskID, "status", st.Column)
	}()
	return true
}

// End cancels the drag, e.g. a release outside every column.
func (c *DragController) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = DragState{}
}

// Wait blocks until every issued drop update has returned.
func (c *DragController) Wait() {
	c.inflight.Wait()
}
