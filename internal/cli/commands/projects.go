package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/cli/forms"
	"github.com/taskdesk-dev/taskdesk/internal/cli/output"
)

// NewProjectsCmd creates the projects command group
func NewProjectsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		newProjectsListCmd(opts),
		newProjectsShowCmd(opts),
		newProjectsCreateCmd(opts),
		newProjectsUpdateCmd(opts),
		newProjectsDeleteCmd(opts),
	)

	return cmd
}

func newProjectsListCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List projects you created or are a member of",
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

			projects, err := a.client.Projects(ctx)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}

			if len(projects) == 0 && !printer.Structured() {
				fmt.Fprintln(opts.Out, "No projects found.")
				fmt.Fprintln(opts.Out, "\nCreate one with: taskdesk projects create <name>")
				return nil
			}

			return printer.Print(projects, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRIORITY\tPROGRESS\tMEMBERS\tEND DATE")
				for _, p := range projects {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.0f%%\t%d\t%s\n",
						p.ID, p.Name, p.Status, p.Priority, p.Progress, len(p.Members), formatDate(p.EndDate))
				}
			})
		},
	}
}

func newProjectsShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
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

			project, err := a.client.Project(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get project: %w", err)
			}
			if project == nil {
				return fmt.Errorf("project %d not found", id)
			}

			return printProject(printer, project)
		},
	}
}

func newProjectsCreateCmd(opts *Options) *cobra.Command {
	form := forms.ProjectForm{
		Status:   string(api.ProjectPlanning),
		Priority: string(api.PriorityMedium),
	}
	var budget float64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Long: `Create a project. You become its lead.

Examples:
  $ taskdesk projects create "Website redesign" --priority high --end-date 2026-12-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Name = args[0]
			if cmd.Flags().Changed("budget") {
				form.Budget = &budget
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

			project, err := a.client.CreateProject(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			if !printer.Structured() {
				fmt.Fprintf(opts.Out, "✓ Created project %d\n\n", project.ID)
			}
			return printProject(printer, project)
		},
	}

	cmd.Flags().StringVar(&form.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&form.Status, "status", form.Status, "Status: planning, in_progress, on_hold, completed, cancelled")
	cmd.Flags().StringVar(&form.Priority, "priority", form.Priority, "Priority: low, medium, high, urgent")
	cmd.Flags().StringVar(&form.StartDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.EndDate, "end-date", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Budget")

	return cmd
}

func newProjectsUpdateCmd(opts *Options) *cobra.Command {
	var name, description, status, priority, startDate, endDate string
	var budget float64

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project. Only the flags you pass are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			input := api.ProjectInput{
				Name:     name,
				Status:   api.ProjectStatus(status),
				Priority: api.Priority(priority),
			}
			setIfChanged(cmd, "description", description, &input.Description)
			if input.StartDate, err = dateFlag(cmd, "start-date", startDate); err != nil {
				return err
			}
			if input.EndDate, err = dateFlag(cmd, "end-date", endDate); err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") {
				input.Budget = &budget
			}

			if err := validatePartial(input, "Name"); err != nil {
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

			project, err := a.client.UpdateProject(ctx, id, input)
			if err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}

			return printProject(printer, project)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().StringVar(&status, "status", "", "Status: planning, in_progress, on_hold, completed, cancelled")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium, high, urgent")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Budget")

	return cmd
}

func newProjectsDeleteCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project you created",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			if err := a.client.DeleteProject(ctx, id); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			fmt.Fprintf(opts.Out, "✓ Deleted project %d\n", id)
			return nil
		},
	}
}

func printProject(printer *output.Printer, p *api.Project) error {
	return printer.Print(p, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", p.ID)
		fmt.Fprintf(w, "Name:\t%s\n", p.Name)
		fmt.Fprintf(w, "Description:\t%s\n", orDash(p.Description))
		fmt.Fprintf(w, "Status:\t%s\n", p.Status)
		fmt.Fprintf(w, "Priority:\t%s\n", p.Priority)
		fmt.Fprintf(w, "Progress:\t%.0f%%\n", p.Progress)
		fmt.Fprintf(w, "Start date:\t%s\n", formatDate(p.StartDate))
		fmt.Fprintf(w, "End date:\t%s\n", formatDate(p.EndDate))
		if p.Budget != nil {
			fmt.Fprintf(w, "Budget:\t%.2f\n", *p.Budget)
		}
		if p.Creator != nil {
			fmt.Fprintf(w, "Creator:\t%s\n", p.Creator.Username)
		}
		members := make([]string, len(p.Members))
		for i, m := range p.Members {
			members[i] = m.Username
		}
		fmt.Fprintf(w, "Members:\t%s\n", orDash(joinComma(members)))
	})
}

func parseID(arg, kind string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}
