package domain

import (
	"errors"
	"fmt"
)

// ColumnID identifies one of the fixed workflow stages.
type ColumnID string

const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "in-progress"
	ColumnDone       ColumnID = "done"
)

// ColumnOrder lists the fixed columns in display order.
var ColumnOrder = []ColumnID{ColumnTodo, ColumnInProgress, ColumnDone}

var columnTitles = map[ColumnID]string{
	ColumnTodo:       "To Do",
	ColumnInProgress: "In Progress",
	ColumnDone:       "Done",
}

// ErrInvalidBoard wraps every invariant violation reported by Board.Validate.
var ErrInvalidBoard = errors.New("invalid board")

// KnownColumn reports whether id is one of the fixed columns.
func KnownColumn(id ColumnID) bool {
	_, ok := columnTitles[id]
	return ok
}

// Column is a named stage holding an ordered sequence of tasks.
type Column struct {
	ID    ColumnID `json:"id"`
	Title string   `json:"title"`
	Tasks []Task   `json:"tasks"`
}

func (c Column) indexOf(taskID string) int {
	for i, t := range c.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}

// Board is the complete set of columns and their tasks at a point in time.
// A Board value is treated as immutable; operations return new boards.
type Board struct {
	Columns map[ColumnID]Column `json:"columns"`
}

// NewBoard returns a board with the fixed columns and no tasks.
func NewBoard() Board {
	cols := make(map[ColumnID]Column, len(ColumnOrder))
	for _, id := range ColumnOrder {
		cols[id] = Column{ID: id, Title: columnTitles[id], Tasks: []Task{}}
	}
	return Board{Columns: cols}
}

// Column returns the column with the given id.
func (b Board) Column(id ColumnID) (Column, bool) {
	c, ok := b.Columns[id]
	return c, ok
}

// Find returns the column currently owning taskID.
func (b Board) Find(taskID string) (ColumnID, Task, bool) {
	for _, id := range ColumnOrder {
		c, ok := b.Columns[id]
		if !ok {
			continue
		}
		if i := c.indexOf(taskID); i >= 0 {
			return id, c.Tasks[i], true
		}
	}
	return "", Task{}, false
}

// Counts returns the number of tasks per column.
func (b Board) Counts() map[ColumnID]int {
	out := make(map[ColumnID]int, len(b.Columns))
	for id, c := range b.Columns {
		out[id] = len(c.Tasks)
	}
	return out
}

// HasTask reports whether any column holds a task with the given id.
func (b Board) HasTask(taskID string) bool {
	_, _, ok := b.Find(taskID)
	return ok
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	cols := make(map[ColumnID]Column, len(b.Columns))
	for id, c := range b.Columns {
		tasks := make([]Task, len(c.Tasks))
		copy(tasks, c.Tasks)
		c.Tasks = tasks
		cols[id] = c
	}
	return Board{Columns: cols}
}

// Equal reports whether both boards hold the same columns with the same
// tasks in the same order. Nil and empty task slices compare equal.
func (b Board) Equal(other Board) bool {
	if len(b.Columns) != len(other.Columns) {
		return false
	}
	for id, c := range b.Columns {
		o, ok := other.Columns[id]
		if !ok || c.ID != o.ID || c.Title != o.Title || len(c.Tasks) != len(o.Tasks) {
			return false
		}
		for i := range c.Tasks {
			if c.Tasks[i] != o.Tasks[i] {
				return false
			}
		}
	}
	return true
}

// Validate checks the board invariants: the fixed column set, matching
// column ids and task ids that are non-empty and unique across the board.
func (b Board) Validate() error {
	if len(b.Columns) != len(ColumnOrder) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrInvalidBoard, len(ColumnOrder), len(b.Columns))
	}
	seen := make(map[string]ColumnID)
	for _, id := range ColumnOrder {
		c, ok := b.Columns[id]
		if !ok {
			return fmt.Errorf("%w: missing column %q", ErrInvalidBoard, id)
		}
		if c.ID != id {
			return fmt.Errorf("%w: column %q stored under %q", ErrInvalidBoard, c.ID, id)
		}
		for _, t := range c.Tasks {
			if t.ID == "" {
				return fmt.Errorf("%w: task without id in %q", ErrInvalidBoard, id)
			}
			if prev, dup := seen[t.ID]; dup {
				return fmt.Errorf("%w: task %q in both %q and %q", ErrInvalidBoard, t.ID, prev, id)
			}
			if !t.Priority.Valid() {
				return fmt.Errorf("%w: task %q has priority %q", ErrInvalidBoard, t.ID, t.Priority)
			}
			seen[t.ID] = id
		}
	}
	return nil
}

// withColumn returns a copy of b sharing every column except id.
func (b Board) withColumn(c Column) Board {
	cols := make(map[ColumnID]Column, len(b.Columns))
	for id, col := range b.Columns {
		cols[id] = col
	}
	cols[c.ID] = c
	return Board{Columns: cols}
}
