package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *Options) *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a taskdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, user, password)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Username or email (or set TASKDESK_USER)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TASKDESK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *Options, user, password string) error {
	// Check for environment variables (useful for CI/CD)
	if user == "" {
		user = os.Getenv("TASKDESK_USER")
	}
	if password == "" {
		password = envPassword()
	}

	if err := opts.promptMissing(&user, "Username or email", true); err != nil {
		return fmt.Errorf("username or email is required (use --user flag or TASKDESK_USER env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if !opts.Interactive() {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TASKDESK_PASSWORD env var)")
		}
		var err error
		password, err = opts.ReadPassword("Password: ")
		if err != nil {
			return err
		}
	}

	a, err := opts.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	// Settle any persisted session first; login replaces it
	a.session.Initialize(ctx)

	fmt.Fprintf(opts.Out, "Logging in to %s (%s)...\n", a.server.Alias, a.server.URL)

	if err := a.session.Login(ctx, user, password); err != nil {
		return err
	}

	me := a.session.Snapshot().User
	fmt.Fprintln(opts.Out, "✓ Login successful!")
	fmt.Fprintf(opts.Out, "  User: %s (%s)\n", me.DisplayName(), me.Email)
	fmt.Fprintf(opts.Out, "  Role: %s\n", me.Role)

	return nil
}
