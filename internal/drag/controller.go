// Package drag implements the reorder state machine that sits between
// pointer/keyboard events and the task store. The machine has three
// states: idle, dragging a task, and dragging while hovering a drop
// target. Only the drop transition mutates the store.
package drag

import (
	"github.com/google/uuid"

	"github.com/todone/todone/internal/models"
)

// Board is the slice of the task store the controller needs.
type Board interface {
	Task(id uuid.UUID) (models.Task, bool)
	DropOnto(draggedID, targetID uuid.UUID)
	Move(id uuid.UUID, dir int)
}

// State names the controller's current phase.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateHovering
)

// Controller is a single-drag state machine. It is not safe for
// concurrent use; drag events arrive from one interaction loop.
type Controller struct {
	board    Board
	state    State
	draggedID uuid.UUID
	targetID  uuid.UUID
}

func NewController(board Board) *Controller {
	return &Controller{board: board}
}

// State returns the current phase plus the dragged and hovered ids.
// The ids are only meaningful in their respective states.
func (c *Controller) State() (State, uuid.UUID, uuid.UUID) {
	return c.state, c.draggedID, c.targetID
}

// Start begins a drag. Done and unknown tasks cannot be dragged.
func (c *Controller) Start(id uuid.UUID) bool {
	t, ok := c.board.Task(id)
	if !ok || t.Done {
		return false
	}
	c.state = StateDragging
	c.draggedID = id
	c.targetID = uuid.Nil
	return true
}

// Over updates the hover target. Hovering a done task keeps the
// previous target; hovering while idle is ignored.
func (c *Controller) Over(targetID uuid.UUID) {
	if c.state == StateIdle {
		return
	}
	t, ok := c.board.Task(targetID)
	if !ok || t.Done {
		return
	}
	c.state = StateHovering
	c.targetID = targetID
}

// Drop lands the dragged task before targetID, adopting its bucket,
// and returns to idle. Dropping without an active drag, or onto the
// dragged task itself, mutates nothing.
func (c *Controller) Drop(targetID uuid.UUID) {
	dragged := c.draggedID
	active := c.state != StateIdle
	c.reset()
	if !active || dragged == targetID {
		return
	}
	if _, ok := c.board.Task(targetID); !ok {
		return
	}
	c.board.DropOnto(dragged, targetID)
}

// Cancel abandons the drag without mutating anything.
func (c *Controller) Cancel() {
	c.reset()
}

// MoveUp is the keyboard equivalent of dragging one slot up.
func (c *Controller) MoveUp(id uuid.UUID) {
	c.board.Move(id, -1)
}

// MoveDown is the keyboard equivalent of dragging one slot down.
func (c *Controller) MoveDown(id uuid.UUID) {
	c.board.Move(id, +1)
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.draggedID = uuid.Nil
	c.targetID = uuid.Nil
}
