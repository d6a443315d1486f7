package drag

import (
	"testing"

	"github.com/google/uuid"

	"github.com/todone/todone/internal/models"
)

type fakeBoard struct {
	tasks map[uuid.UUID]models.Task
	drops [][2]uuid.UUID
	moves []int
}

func (b *fakeBoard) Task(id uuid.UUID) (models.Task, bool) {
	t, ok := b.tasks[id]
	return t, ok
}

func (b *fakeBoard) DropOnto(draggedID, targetID uuid.UUID) {
	b.drops = append(b.drops, [2]uuid.UUID{draggedID, targetID})
}

func (b *fakeBoard) Move(_ uuid.UUID, dir int) {
	b.moves = append(b.moves, dir)
}

func board(pending, done int) (*fakeBoard, []uuid.UUID) {
	b := &fakeBoard{tasks: map[uuid.UUID]models.Task{}}
	var ids []uuid.UUID
	for i := 0; i < pending+done; i++ {
		id := uuid.New()
		b.tasks[id] = models.Task{ID: id, Done: i >= pending}
		ids = append(ids, id)
	}
	return b, ids
}

func TestStart(t *testing.T) {
	t.Parallel()

	b, ids := board(1, 1)
	c := NewController(b)

	if !c.Start(ids[0]) {
		t.Error("Start(pending) = false, want true")
	}
	if state, dragged, _ := c.State(); state != StateDragging || dragged != ids[0] {
		t.Errorf("state = %v/%s, want dragging %s", state, dragged, ids[0])
	}

	c.Cancel()
	if c.Start(ids[1]) {
		t.Error("Start(done task) = true, want false")
	}
	if c.Start(uuid.New()) {
		t.Error("Start(unknown) = true, want false")
	}
	if state, _, _ := c.State(); state != StateIdle {
		t.Errorf("state = %v, want idle after refused starts", state)
	}
}

func TestOverAndDrop(t *testing.T) {
	t.Parallel()

	b, ids := board(3, 1)
	c := NewController(b)

	c.Over(ids[1]) // no drag yet
	if state, _, _ := c.State(); state != StateIdle {
		t.Fatalf("Over while idle moved state to %v", state)
	}

	c.Start(ids[0])
	c.Over(ids[1])
	if state, _, target := c.State(); state != StateHovering || target != ids[1] {
		t.Errorf("state = %v target=%s, want hovering %s", state, target, ids[1])
	}

	c.Over(ids[3]) // done task: keep previous target
	if _, _, target := c.State(); target != ids[1] {
		t.Errorf("target = %s, want unchanged %s after hovering a done task", target, ids[1])
	}

	c.Drop(ids[2])
	if len(b.drops) != 1 || b.drops[0] != [2]uuid.UUID{ids[0], ids[2]} {
		t.Errorf("drops = %v, want one drop of %s onto %s", b.drops, ids[0], ids[2])
	}
	if state, _, _ := c.State(); state != StateIdle {
		t.Errorf("state = %v, want idle after drop", state)
	}
}

func TestDropNoops(t *testing.T) {
	t.Parallel()

	b, ids := board(2, 0)
	c := NewController(b)

	c.Drop(ids[0]) // no active drag
	c.Start(ids[0])
	c.Drop(ids[0]) // onto self
	c.Start(ids[0])
	c.Drop(uuid.New()) // unknown target

	if len(b.drops) != 0 {
		t.Errorf("drops = %v, want none", b.drops)
	}
	if state, _, _ := c.State(); state != StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	b, ids := board(2, 0)
	c := NewController(b)

	c.Start(ids[0])
	c.Over(ids[1])
	c.Cancel()

	if state, dragged, target := c.State(); state != StateIdle || dragged != uuid.Nil || target != uuid.Nil {
		t.Errorf("state after cancel = %v/%s/%s, want clean idle", state, dragged, target)
	}
	if len(b.drops) != 0 {
		t.Error("cancel must not mutate the board")
	}
}

func TestKeyboardMove(t *testing.T) {
	t.Parallel()

	b, ids := board(1, 0)
	c := NewController(b)

	c.MoveUp(ids[0])
	c.MoveDown(ids[0])
	if len(b.moves) != 2 || b.moves[0] != -1 || b.moves[1] != 1 {
		t.Errorf("moves = %v, want [-1 1]", b.moves)
	}
}
