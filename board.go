package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskboard/domain"
	"taskboard/session"
)

// openSession loads the stored board for a one-shot command.
func (a *app) openSession(ctx context.Context) *session.Session {
	return session.Open(ctx, a.store, a.ids(), nil, a.log)
}

func newShowCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Long: `Print every column with its task count.

Examples:
  taskboard show
  taskboard show --filter database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := a.openSession(cmd.Context())
			sess.SetFilter(filter)
			return printBoard(cmd.OutOrStdout(), sess.VisibleBoard())
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show tasks whose title or description contains this text")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var draft domain.TaskDraft
	var priority string
	cmd := &cobra.Command{
		Use:   "add <column> <title>",
		Short: "Add a task to the end of a column",
		Long: `Add a task to the end of a column (todo, in-progress or done).

Examples:
  taskboard add todo "Write tests" --description "Unit tests for reducer" --category QA
  taskboard add in-progress "Release notes" --priority high --due 2024-01-31`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			column := domain.ColumnID(args[0])
			if !domain.KnownColumn(column) {
				return fmt.Errorf("unknown column %q", args[0])
			}
			draft.Title = args[1]
			if priority != "" {
				p, err := domain.ParsePriority(priority)
				if err != nil {
					return err
				}
				draft.Priority = p
			}

			sess := a.openSession(cmd.Context())
			task, ok, err := sess.AddTask(column, draft)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown column %q", args[0])
			}
			if err := a.save(cmd.Context(), sess.Board()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", task.ID, column)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Description, "description", "", "task description")
	cmd.Flags().StringVar(&draft.Category, "category", "", "task category (default General)")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium or High (default Low)")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "move <task-id> <column>",
		Short: "Move a task to the end of a column",
		Long: `Move a task to the end of a column. The source column is looked up
unless --from is given.

Examples:
  taskboard move 1 done
  taskboard move 3 todo --from in-progress`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.openSession(cmd.Context())
			source := domain.ColumnID(from)
			if source == "" {
				owner, _, found := sess.Board().Find(args[0])
				if !found {
					fmt.Fprintf(cmd.OutOrStdout(), "no task %s\n", args[0])
					return nil
				}
				source = owner
			}
			changed := sess.MoveTask(source, domain.ColumnID(args[1]), args[0])
			return a.report(cmd, sess, changed, fmt.Sprintf("moved %s to %s", args[0], args[1]))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "column the task is currently in")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Long: `Delete a task. The owning column is looked up unless --column is given.

Examples:
  taskboard rm 4
  taskboard rm 4 --column done`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.openSession(cmd.Context())
			owner := domain.ColumnID(column)
			if owner == "" {
				found := false
				owner, _, found = sess.Board().Find(args[0])
				if !found {
					fmt.Fprintf(cmd.OutOrStdout(), "no task %s\n", args[0])
					return nil
				}
			}
			changed := sess.DeleteTask(owner, args[0])
			return a.report(cmd, sess, changed, fmt.Sprintf("deleted %s", args[0]))
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "column holding the task")
	return cmd
}

// report saves a changed board and prints the outcome.
func (a *app) report(cmd *cobra.Command, sess *session.Session, changed bool, msg string) error {
	out := cmd.OutOrStdout()
	if !changed {
		fmt.Fprintln(out, "no change")
		return nil
	}
	if err := a.save(cmd.Context(), sess.Board()); err != nil {
		return err
	}
	fmt.Fprintln(out, msg)
	return nil
}

func printBoard(w io.Writer, b domain.Board) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	counts := b.Counts()
	for _, id := range domain.ColumnOrder {
		col, ok := b.Column(id)
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s (%d)\n", col.Title, counts[id])
		for _, t := range col.Tasks {
			details := []string{t.Category, string(t.Priority)}
			if t.DueDate != "" {
				details = append(details, "due "+t.DueDate)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.ID, t.Title, strings.Join(details, ", "))
		}
	}
	return tw.Flush()
}
