package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			return printUser(opts, a.session.Snapshot().User)
		},
	}
}

// NewProfileCmd creates the profile command group
func NewProfileCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View or edit your profile",
	}
	cmd.AddCommand(newProfileUpdateCmd(opts))
	return cmd
}

func newProfileUpdateCmd(opts *Options) *cobra.Command {
	var fullName, avatarURL, phone, department, position string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: `Update profile fields. Only the flags you pass are changed.

Examples:
  $ taskdesk profile update --full-name "Alice Doe" --department Engineering`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input api.ProfileInput
			setIfChanged(cmd, "full-name", fullName, &input.FullName)
			setIfChanged(cmd, "avatar-url", avatarURL, &input.AvatarURL)
			setIfChanged(cmd, "phone", phone, &input.Phone)
			setIfChanged(cmd, "department", department, &input.Department)
			setIfChanged(cmd, "position", position, &input.Position)

			if input == (api.ProfileInput{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			a, err := opts.authenticatedApp(ctx)
			if err != nil {
				return err
			}

			user, err := a.client.UpdateProfile(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			if err := a.session.UpdateUser(user); err != nil {
				return err
			}

			return printUser(opts, a.session.Snapshot().User)
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "Avatar URL")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&department, "department", "", "Department")
	cmd.Flags().StringVar(&position, "position", "", "Position")

	return cmd
}

// NewUsersCmd creates the users command
func NewUsersCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users",
		Args:  cobra.NoArgs,
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

			users, err := a.client.Users(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			return printer.Print(users, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tACTIVE")
				for _, u := range users {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, orDash(u.FullName), u.Email, u.Role, u.IsActive)
				}
			})
		},
	}
}

func printUser(opts *Options, user *api.User) error {
	printer, err := opts.printer()
	if err != nil {
		return err
	}

	return printer.Print(user, func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%d\n", user.ID)
		fmt.Fprintf(w, "Username:\t%s\n", user.Username)
		fmt.Fprintf(w, "Name:\t%s\n", orDash(user.FullName))
		fmt.Fprintf(w, "Email:\t%s\n", user.Email)
		fmt.Fprintf(w, "Role:\t%s\n", user.Role)
		fmt.Fprintf(w, "Department:\t%s\n", orDash(user.Department))
		fmt.Fprintf(w, "Position:\t%s\n", orDash(user.Position))
		fmt.Fprintf(w, "Phone:\t%s\n", orDash(user.Phone))
	})
}

// setIfChanged points dst at value when the flag was passed explicitly
func setIfChanged(cmd *cobra.Command, flag, value string, dst **string) {
	if cmd.Flags().Changed(flag) {
		v := value
		*dst = &v
	}
}
