package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/cli/commands"
	"github.com/taskdesk-dev/taskdesk/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around opts
func NewRootCmd(opts *commands.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskdesk",
		Short: "taskdesk - projects and tasks from your terminal",
		Long: `taskdesk CLI - Manage your projects and tasks with ease.

Sign in once and your session is kept in the OS keychain (or a local
credentials file), then browse projects, move tasks across the board
and follow team activity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.Logger = logger.New(opts.Err, opts.LogLevel, "console")
		},
	}

	rootCmd.SetOut(opts.Out)
	rootCmd.SetErr(opts.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Server, "server", "", "Server URL or alias from taskdesk.json (or set TASKDESK_SERVER)")
	flags.StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json or yaml")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.Out, "taskdesk version %s\n", version)
		},
	})

	rootCmd.AddCommand(
		commands.NewInitCmd(opts),
		commands.NewSelectServerCmd(opts),
		commands.NewLoginCmd(opts),
		commands.NewRegisterCmd(opts),
		commands.NewLogoutCmd(opts),
		commands.NewWhoamiCmd(opts),
		commands.NewProfileCmd(opts),
		commands.NewUsersCmd(opts),
		commands.NewProjectsCmd(opts),
		commands.NewTasksCmd(opts),
		commands.NewBoardCmd(opts),
		commands.NewDashboardCmd(opts),
		commands.NewActivityCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	opts := commands.NewOptions()
	if err := NewRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
