package domain

// Transition applies a to b and returns the resulting board together with
// whether anything changed. b is never mutated; columns the action does not
// touch are shared between the input and the result.
//
// Lookup misses (unknown column, task not in the named column) are no-ops
// that return b unchanged. AddTask normalizes its draft first, so a blank
// category or priority takes the board defaults; a draft whose priority is
// still unknown after that is a no-op as well.
func Transition(b Board, a Action, ids IDSource) (Board, bool) {
	switch act := a.(type) {
	case AddTask:
		return addTask(b, act, ids)
	case MoveTask:
		return moveTask(b, act)
	case DeleteTask:
		return deleteTask(b, act)
	default:
		return b, false
	}
}

func addTask(b Board, a AddTask, ids IDSource) (Board, bool) {
	col, ok := b.Columns[a.Column]
	if !ok || ids == nil {
		return b, false
	}
	draft := a.Draft.Normalize()
	if !draft.Priority.Valid() {
		return b, false
	}
	taken := taskIDs(b)
	id := ids.NextID(func(id string) bool {
		_, dup := taken[id]
		return dup || id == ""
	})

	tasks := make([]Task, len(col.Tasks), len(col.Tasks)+1)
	copy(tasks, col.Tasks)
	col.Tasks = append(tasks, draft.task(id))
	return b.withColumn(col), true
}

func moveTask(b Board, a MoveTask) (Board, bool) {
	src, ok := b.Columns[a.From]
	if !ok {
		return b, false
	}
	if _, ok := b.Columns[a.To]; !ok {
		return b, false
	}
	i := src.indexOf(a.TaskID)
	if i < 0 {
		return b, false
	}
	moved := src.Tasks[i]

	src.Tasks = without(src.Tasks, i)
	next := b.withColumn(src)

	// Read the destination after removal so a move within one column
	// re-appends to the shortened sequence instead of duplicating.
	dst := next.Columns[a.To]
	tasks := make([]Task, len(dst.Tasks), len(dst.Tasks)+1)
	copy(tasks, dst.Tasks)
	dst.Tasks = append(tasks, moved)
	next.Columns[a.To] = dst
	return next, true
}

func deleteTask(b Board, a DeleteTask) (Board, bool) {
	col, ok := b.Columns[a.Column]
	if !ok {
		return b, false
	}
	i := col.indexOf(a.TaskID)
	if i < 0 {
		return b, false
	}
	col.Tasks = without(col.Tasks, i)
	return b.withColumn(col), true
}

func without(tasks []Task, i int) []Task {
	out := make([]Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}

func taskIDs(b Board) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			ids[t.ID] = struct{}{}
		}
	}
	return ids
}
