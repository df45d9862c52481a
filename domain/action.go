package domain

// Action is a request to change the board. The set of actions is closed:
// only the types in this package implement it.
type Action interface {
	isAction()
}

// AddTask appends a new task built from Draft to the end of Column.
type AddTask struct {
	Column ColumnID
	Draft  TaskDraft
}

// MoveTask relocates TaskID from column From to the end of column To.
type MoveTask struct {
	From   ColumnID
	To     ColumnID
	TaskID string
}

// DeleteTask removes TaskID from Column.
type DeleteTask struct {
	Column ColumnID
	TaskID string
}

func (AddTask) isAction()    {}
func (MoveTask) isAction()   {}
func (DeleteTask) isAction() {}
