// Package session holds the caller-owned board state. A Session dispatches
// actions through domain.Transition, hands every changed board to an
// injected persistence callback and answers filtered views for display.
package session

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// PersistFunc receives each board produced by a successful transition. It
// must not block; failures are its own to report.
type PersistFunc func(domain.Board)

// Loader reads a previously stored board.
type Loader interface {
	Load(ctx context.Context) (domain.Board, bool)
}

// Session is the explicit state container for one board. All methods are
// safe for concurrent use; dispatches are applied one at a time.
type Session struct {
	mu      sync.RWMutex
	board   domain.Board
	filter  string
	ids     domain.IDSource
	persist PersistFunc
	log     *log.Logger
}

// New returns a session starting from board. A nil persist disables
// persistence; a nil ids uses domain.ClockIDs.
func New(board domain.Board, ids domain.IDSource, persist PersistFunc, logger *log.Logger) *Session {
	if ids == nil {
		ids = domain.NewClockIDs()
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	s := &Session{board: board, ids: ids, persist: persist, log: logger}
	s.bumpIDs(board)
	return s
}

// bumpIDs lets a clock-based id source skip past ids already on b.
func (s *Session) bumpIDs(b domain.Board) {
	if bumper, ok := s.ids.(interface{ Bump(domain.Board) }); ok {
		bumper.Bump(b)
	}
}

// Open starts a session from the stored board, or from the seed board when
// nothing usable is stored.
func Open(ctx context.Context, loader Loader, ids domain.IDSource, persist PersistFunc, logger *log.Logger) *Session {
	s := New(domain.SeedBoard(), ids, persist, logger)
	if loader == nil {
		return s
	}
	if b, ok := loader.Load(ctx); ok {
		s.board = b
		s.bumpIDs(b)
		s.log.WithField("tasks", countTasks(b)).Info("restored board from snapshot")
	} else {
		s.log.Info("no stored board; starting from seed board")
	}
	return s
}

// Dispatch applies a and reports whether the board changed.
func (s *Session) Dispatch(a domain.Action) bool {
	_, changed := s.dispatch(a)
	return changed
}

func (s *Session) dispatch(a domain.Action) (domain.Board, bool) {
	s.mu.Lock()
	next, changed := domain.Transition(s.board, a, s.ids)
	if changed {
		s.board = next
		// Under the lock so the callback sees boards in dispatch order.
		if s.persist != nil {
			s.persist(next)
		}
	}
	s.mu.Unlock()

	s.log.WithFields(log.Fields{"action": actionName(a), "changed": changed}).Debug("board action dispatched")
	return next, changed
}

// DispatchAll applies actions in order under one lock, so no other dispatch
// lands between them, and persists only the final board. It reports per
// action whether it changed the board.
func (s *Session) DispatchAll(actions []domain.Action) []bool {
	changed := make([]bool, len(actions))
	dirty := false

	s.mu.Lock()
	b := s.board
	for i, a := range actions {
		b, changed[i] = domain.Transition(b, a, s.ids)
		dirty = dirty || changed[i]
	}
	if dirty {
		s.board = b
		if s.persist != nil {
			s.persist(b)
		}
	}
	s.mu.Unlock()

	s.log.WithFields(log.Fields{"actions": len(actions), "changed": dirty}).Debug("board batch dispatched")
	return changed
}

// AddTask validates draft and appends it to column. It returns the created
// task and false when the column does not exist.
func (s *Session) AddTask(column domain.ColumnID, draft domain.TaskDraft) (domain.Task, bool, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return domain.Task{}, false, err
	}
	next, changed := s.dispatch(domain.AddTask{Column: column, Draft: draft})
	if !changed {
		return domain.Task{}, false, nil
	}
	tasks := next.Columns[column].Tasks
	return tasks[len(tasks)-1], true, nil
}

// MoveTask relocates taskID from one column to the end of another.
func (s *Session) MoveTask(from, to domain.ColumnID, taskID string) bool {
	return s.Dispatch(domain.MoveTask{From: from, To: to, TaskID: taskID})
}

// DeleteTask removes taskID from column.
func (s *Session) DeleteTask(column domain.ColumnID, taskID string) bool {
	return s.Dispatch(domain.DeleteTask{Column: column, TaskID: taskID})
}

// SetFilter sets the text VisibleBoard filters by.
func (s *Session) SetFilter(text string) {
	s.mu.Lock()
	s.filter = text
	s.mu.Unlock()
}

// Filter returns the current filter text.
func (s *Session) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// VisibleBoard projects the current board through the current filter.
func (s *Session) VisibleBoard() domain.Board {
	s.mu.RLock()
	b, f := s.board, s.filter
	s.mu.RUnlock()
	return domain.Project(b, f)
}

// Board returns the current, unfiltered board.
func (s *Session) Board() domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func actionName(a domain.Action) string {
	switch a.(type) {
	case domain.AddTask:
		return "add"
	case domain.MoveTask:
		return "move"
	case domain.DeleteTask:
		return "delete"
	}
	return "unknown"
}

func countTasks(b domain.Board) int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}
