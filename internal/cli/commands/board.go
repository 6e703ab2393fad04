package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/board"
)

// NewBoardCmd creates the board command
func NewBoardCmd(opts *Options) *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped into status columns",
		Long: `Show tasks grouped into the To Do, In Progress, In Review, Done and
Blocked columns. Empty columns are still shown.

Examples:
  $ taskdesk board
  $ taskdesk board --project 3 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer()
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			tasks, err := a.client.Tasks(ctx, projectFilter(cmd, projectID))
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			columns := board.Group(tasks, board.DefaultBuckets)
			counts := board.Counts(columns)

			return printer.Print(columns, func(w io.Writer) {
				total := 0
				for i, col := range columns {
					if i > 0 {
						fmt.Fprintln(w)
					}
					total += counts[i].Count
					fmt.Fprintf(w, "%s (%d)\n", col.Title, counts[i].Count)
					if len(col.Tasks) == 0 {
						fmt.Fprintln(w, "  (empty)")
						continue
					}
					for _, t := range col.Tasks {
						fmt.Fprintf(w, "  #%d\t%s\t%s\t%s\n", t.ID, t.Title, t.Priority, orDash(assigneeNames(t.Assignees)))
					}
				}
				fmt.Fprintf(w, "\n%d tasks on the board\n", total)
			})
		},
	}

	cmd.Flags().IntVarP(&projectID, "project", "p", 0, "Only tasks of this project (defaults to default_project_id in taskdesk.json, 0 for all)")

	return cmd
}
