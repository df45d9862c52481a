package domain

// SeedBoard returns the board shown on first run, before any snapshot has
// been saved.
func SeedBoard() Board {
	b := NewBoard()
	b.Columns[ColumnTodo] = Column{
		ID:    ColumnTodo,
		Title: columnTitles[ColumnTodo],
		Tasks: []Task{
			{
				ID:          "1",
				Title:       "Design Homepage",
				Description: "Create a responsive homepage design based on the wireframes.",
				Category:    "Design",
				Priority:    PriorityHigh,
				DueDate:     "2023-10-25",
			},
			{
				ID:          "2",
				Title:       "Setup Database",
				Description: "Configure the PostgreSQL database and create necessary tables.",
				Category:    "Backend",
				Priority:    PriorityMedium,
				DueDate:     "2023-10-28",
			},
		},
	}
	b.Columns[ColumnInProgress] = Column{
		ID:    ColumnInProgress,
		Title: columnTitles[ColumnInProgress],
		Tasks: []Task{
			{
				ID:          "3",
				Title:       "Develop API endpoints",
				Description: "Build and test RESTful APIs for user authentication and data retrieval.",
				Category:    "Backend",
				Priority:    PriorityHigh,
				DueDate:     "2023-11-05",
			},
		},
	}
	b.Columns[ColumnDone] = Column{
		ID:    ColumnDone,
		Title: columnTitles[ColumnDone],
		Tasks: []Task{
			{
				ID:          "4",
				Title:       "Fix deployment bug",
				Description: "Resolved the issue with the deployment script on Vercel.",
				Category:    "DevOps",
				Priority:    PriorityLow,
				DueDate:     "2023-10-15",
			},
		},
	}
	return b
}
