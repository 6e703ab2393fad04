package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/cli/forms"
	"github.com/taskdesk-dev/taskdesk/internal/cli/output"
)

// NewTasksCmd creates the tasks command group
func NewTasksCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(
		newTasksListCmd(opts),
		newTasksShowCmd(opts),
		newTasksCreateCmd(opts),
		newTasksUpdateCmd(opts),
		newTasksDeleteCmd(opts),
		newTasksAssignCmd(opts),
	)

	return cmd
}

// projectFilter returns the --project value, falling back to default_project_id
func projectFilter(cmd *cobra.Command, projectID int) *int {
	if cmd.Flags().Changed("project") {
		if projectID <= 0 {
			return nil
		}
		return &projectID
	}
	return defaultProjectID()
}

func newTasksListCmd(opts *Options) *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks",
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

			tasks, err := a.client.Tasks(ctx, projectFilter(cmd, projectID))
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			if len(tasks) == 0 && !printer.Structured() {
				fmt.Fprintln(opts.Out, "No tasks found.")
				fmt.Fprintln(opts.Out, "\nCreate one with: taskdesk tasks create <title> --project <id>")
				return nil
			}

			return printer.Print(tasks, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tPROJECT\tASSIGNEES\tDUE")
				for _, t := range tasks {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, t.Title, t.Status, t.Priority, projectName(t.Project), orDash(assigneeNames(t.Assignees)), formatDate(t.DueDate))
				}
			})
		},
	}

	cmd.Flags().IntVarP(&projectID, "project", "p", 0, "Only tasks of this project (defaults to default_project_id in taskdesk.json, 0 for all)")

	return cmd
}

func newTasksShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
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

			task, err := a.client.Task(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}
			if task == nil {
				return fmt.Errorf("task %d not found", id)
			}

			return printTask(printer, task)
		},
	}
}

func newTasksCreateCmd(opts *Options) *cobra.Command {
	form := forms.TaskForm{
		Status:   string(api.TaskTodo),
		Priority: string(api.PriorityMedium),
	}
	var estimatedHours int

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Long: `Create a task in a project.

Examples:
  $ taskdesk tasks create "Write release notes" --project 3 --priority high --due-date 2026-11-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Title = args[0]
			if form.ProjectID == 0 {
				if id := defaultProjectID(); id != nil {
					form.ProjectID = *id
				}
			}
			if cmd.Flags().Changed("estimated-hours") {
				form.EstimatedHours = &estimatedHours
			}

			if err := form.Validate(); err != nil {
				return err
			}
			input, err := form.Input()
			if err != nil {
				return err
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

			task, err := a.client.CreateTask(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			if !printer.Structured() {
				fmt.Fprintf(opts.Out, "✓ Created task %d\n\n", task.ID)
			}
			return printTask(printer, task)
		},
	}

	cmd.Flags().IntVarP(&form.ProjectID, "project", "p", 0, "Project id (defaults to default_project_id in taskdesk.json)")
	cmd.Flags().StringVar(&form.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&form.Status, "status", form.Status, "Status: todo, in_progress, in_review, done, blocked")
	cmd.Flags().StringVar(&form.Priority, "priority", form.Priority, "Priority: low, medium, high, urgent")
	cmd.Flags().IntVar(&estimatedHours, "estimated-hours", 0, "Estimated hours")
	cmd.Flags().StringVar(&form.StartDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.DueDate, "due-date", "", "Due date (YYYY-MM-DD)")

	return cmd
}

func newTasksUpdateCmd(opts *Options) *cobra.Command {
	var title, description, status, priority, startDate, dueDate string
	var estimatedHours, actualHours int

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task. Only the flags you pass are changed",
		Long: `Update a task. Only the flags you pass are changed.

Examples:
  $ taskdesk tasks update 12 --status in_review
  $ taskdesk tasks update 12 --status done --actual-hours 6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}

			input := api.TaskInput{
				Title:    title,
				Status:   api.TaskStatus(status),
				Priority: api.Priority(priority),
			}
			setIfChanged(cmd, "description", description, &input.Description)
			if cmd.Flags().Changed("estimated-hours") {
				input.EstimatedHours = &estimatedHours
			}
			if cmd.Flags().Changed("actual-hours") {
				input.ActualHours = &actualHours
			}
			if input.StartDate, err = dateFlag(cmd, "start-date", startDate); err != nil {
				return err
			}
			if input.DueDate, err = dateFlag(cmd, "due-date", dueDate); err != nil {
				return err
			}

			if err := validatePartial(input, "Title", "ProjectID"); err != nil {
				return err
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

			task, err := a.client.UpdateTask(ctx, id, input)
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}

			return printTask(printer, task)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&status, "status", "", "Status: todo, in_progress, in_review, done, blocked")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium, high, urgent")
	cmd.Flags().IntVar(&estimatedHours, "estimated-hours", 0, "Estimated hours")
	cmd.Flags().IntVar(&actualHours, "actual-hours", 0, "Actual hours")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "Due date (YYYY-MM-DD)")

	return cmd
}

func newTasksDeleteCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "task")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			if err := a.client.DeleteTask(ctx, id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}

			fmt.Fprintf(opts.Out, "✓ Deleted task %d\n", id)
			return nil
		},
	}
}

func newTasksAssignCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id> <user-id>",
		Short: "Assign a user to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			userID, err := parseID(args[1], "user")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			if err := a.client.AssignTask(ctx, taskID, userID); err != nil {
				return fmt.Errorf("failed to assign task: %w", err)
			}

			fmt.Fprintf(opts.Out, "✓ Assigned user %d to task %d\n", userID, taskID)
			return nil
		},
	}
}

func printTask(printer *output.Printer, t *api.Task) error {
	return printer.Print(t, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", t.ID)
		fmt.Fprintf(w, "Title:\t%s\n", t.Title)
		fmt.Fprintf(w, "Description:\t%s\n", orDash(t.Description))
		fmt.Fprintf(w, "Status:\t%s\n", t.Status)
		fmt.Fprintf(w, "Priority:\t%s\n", t.Priority)
		fmt.Fprintf(w, "Project:\t%s\n", projectName(t.Project))
		fmt.Fprintf(w, "Assignees:\t%s\n", orDash(assigneeNames(t.Assignees)))
		if t.EstimatedHours != nil {
			fmt.Fprintf(w, "Estimated hours:\t%d\n", *t.EstimatedHours)
		}
		if t.ActualHours != nil {
			fmt.Fprintf(w, "Actual hours:\t%d\n", *t.ActualHours)
		}
		fmt.Fprintf(w, "Start date:\t%s\n", formatDate(t.StartDate))
		fmt.Fprintf(w, "Due date:\t%s\n", formatDate(t.DueDate))
		fmt.Fprintf(w, "Completed:\t%s\n", formatDate(t.CompletedAt))
	})
}

func projectName(p *api.ProjectRef) string {
	if p == nil {
		return "-"
	}
	return p.Name
}

func assigneeNames(users []api.UserSummary) string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return joinComma(names)
}
