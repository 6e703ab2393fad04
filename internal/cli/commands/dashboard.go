package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/board"
)

const defaultActivityLimit = 10

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show project and task statistics",
		Args:    cobra.NoArgs,
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

			stats, err := a.client.DashboardStats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get dashboard stats: %w", err)
			}

			me := a.session.Snapshot().User

			return printer.Print(stats, func(w io.Writer) {
				fmt.Fprintf(w, "Welcome back, %s\n\n", me.DisplayName())
				fmt.Fprintf(w, "Projects:\t%d\t(%d active, %d completed)\n", stats.TotalProjects, stats.ActiveProjects, stats.CompletedProjects)
				fmt.Fprintf(w, "Tasks:\t%d\t(%d completed, %d overdue)\n", stats.TotalTasks, stats.CompletedTasks, stats.OverdueTasks)
				fmt.Fprintln(w)
				for _, c := range stats.TasksByStatus {
					fmt.Fprintf(w, "%s:\t%d\n", board.Title(c.Status), c.Count)
				}
			})
		},
	}
}

// NewActivityCmd creates the activity command
func NewActivityCmd(opts *Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

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

			activities, err := a.client.RecentActivities(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to get recent activity: %w", err)
			}

			if len(activities) == 0 && !printer.Structured() {
				fmt.Fprintln(opts.Out, "No recent activity.")
				return nil
			}

			return printer.Print(activities, func(w io.Writer) {
				fmt.Fprintln(w, "WHEN\tUSER\tACTION\tDESCRIPTION")
				for _, act := range activities {
					user := "-"
					if act.User != nil {
						user = act.User.Username
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", act.CreatedAt.Local().Format("2006-01-02 15:04"), user, act.Action, act.Description)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultActivityLimit, "Number of entries to show")

	return cmd
}
