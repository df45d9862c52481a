package api

import "taskboard/domain"

const requestMaxSize = 64 * 1024 // 64 KiB

const headerIdempotencyKey = "Idempotency-Key"

// GET /api/board and PUT /api/filter response body
type boardResponse struct {
	Filter  string       `json:"filter"`
	Columns []columnView `json:"columns"`
}

type columnView struct {
	ID    domain.ColumnID `json:"id"`
	Title string          `json:"title"`
	Count int             `json:"count"`
	Tasks []domain.Task   `json:"tasks"`
}

// PUT /api/filter request body
type filterRequest struct {
	Text string `json:"text"`
}

// POST /api/tasks/:id/move request body. From may be omitted.
type moveRequest struct {
	From domain.ColumnID `json:"from,omitempty"`
	To   domain.ColumnID `json:"to"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

// POST /api/actions response body, one entry per command in request order
type actionsResponse struct {
	Changed []bool `json:"changed"`
	Error   string `json:"error,omitempty"`
}

func newBoardResponse(b domain.Board, filter string) boardResponse {
	resp := boardResponse{Filter: filter, Columns: make([]columnView, 0, len(domain.ColumnOrder))}
	for _, id := range domain.ColumnOrder {
		col, ok := b.Column(id)
		if !ok {
			continue
		}
		tasks := col.Tasks
		if tasks == nil {
			tasks = []domain.Task{}
		}
		resp.Columns = append(resp.Columns, columnView{ID: col.ID, Title: col.Title, Count: len(tasks), Tasks: tasks})
	}
	return resp
}
