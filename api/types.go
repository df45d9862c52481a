package api

import (
	"context"

	"taskboard/domain"
)

// Board is the session surface the handlers drive.
type Board interface {
	Board() domain.Board
	VisibleBoard() domain.Board
	Filter() string
	SetFilter(text string)
	AddTask(column domain.ColumnID, draft domain.TaskDraft) (domain.Task, bool, error)
	MoveTask(from, to domain.ColumnID, taskID string) bool
	DeleteTask(column domain.ColumnID, taskID string) bool
	DispatchAll(actions []domain.Action) []bool
}

// Deduper prevents a retried create request from adding the same task twice.
type Deduper interface {
	// Claim records key for a create in column and reports whether it was
	// free.
	Claim(ctx context.Context, column domain.ColumnID, key string) (bool, error)
	// Release frees a claimed key, used when the create fails.
	Release(ctx context.Context, column domain.ColumnID, key string) error
}
