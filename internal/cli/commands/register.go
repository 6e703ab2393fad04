package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/api"
	"github.com/taskdesk-dev/taskdesk/internal/cli/forms"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts *Options) *cobra.Command {
	var form forms.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create an account on the selected server and sign in with it.

Missing fields are prompted for when a terminal is attached.

Examples:
  $ taskdesk register
  $ taskdesk register --email alice@example.com --username alice --full-name "Alice Doe"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts, &form)
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Username, "username", "", "Username (letters, numbers, - and _)")
	cmd.Flags().StringVar(&form.FullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&form.Role, "role", "", "Role: admin, manager, developer or viewer (default developer)")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&form.Department, "department", "", "Department")
	cmd.Flags().StringVar(&form.Position, "position", "", "Position")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (or set TASKDESK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, opts *Options, form *forms.RegisterForm) error {
	if err := collectRegisterForm(opts, form); err != nil {
		return err
	}

	if err := form.Validate(); err != nil {
		return err
	}

	a, err := opts.newApp()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a.session.Initialize(ctx)

	if err := a.session.Register(ctx, form.Input()); err != nil {
		return err
	}

	me := a.session.Snapshot().User
	fmt.Fprintln(opts.Out, "✓ Registration successful!")
	fmt.Fprintf(opts.Out, "  User: %s (%s)\n", me.DisplayName(), me.Email)
	fmt.Fprintf(opts.Out, "  Role: %s\n", me.Role)

	return nil
}

func collectRegisterForm(opts *Options, form *forms.RegisterForm) error {
	if err := opts.promptMissing(&form.Email, "Email", true); err != nil {
		return err
	}
	if err := opts.promptMissing(&form.Username, "Username", true); err != nil {
		return err
	}
	if err := opts.promptMissing(&form.FullName, "Full name", true); err != nil {
		return err
	}

	if form.Role == "" && opts.Interactive() {
		roles := make([]string, len(api.Roles))
		for i, role := range api.Roles {
			roles[i] = string(role)
		}
		role, err := opts.SelectOption("Role", roles)
		if err != nil {
			return err
		}
		form.Role = role
	}

	if form.Password == "" {
		form.Password = envPassword()
	}
	if form.Password == "" {
		if !opts.Interactive() {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or TASKDESK_PASSWORD env var)")
		}
		password, err := opts.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		form.Password = password
	}

	if form.ConfirmPassword == "" {
		if opts.Interactive() {
			confirm, err := opts.ReadPassword("Confirm password: ")
			if err != nil {
				return err
			}
			form.ConfirmPassword = confirm
		} else {
			// Flags and env vars carry the password once
			form.ConfirmPassword = form.Password
		}
	}

	return nil
}
