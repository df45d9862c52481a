package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Project returns the view of b restricted to tasks whose title or
// description contains filter, compared under Unicode case folding. An empty
// filter returns b itself. Column ids, titles and task order are kept and b
// is never modified.
func Project(b Board, filter string) Board {
	if filter == "" {
		return b
	}
	fold := cases.Fold()
	needle := fold.String(filter)

	cols := make(map[ColumnID]Column, len(b.Columns))
	for id, c := range b.Columns {
		tasks := make([]Task, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			if strings.Contains(fold.String(t.Title), needle) || strings.Contains(fold.String(t.Description), needle) {
				tasks = append(tasks, t)
			}
		}
		c.Tasks = tasks
		cols[id] = c
	}
	return Board{Columns: cols}
}
