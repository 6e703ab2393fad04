package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token for the selected server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}

			a.session.Logout()

			fmt.Fprintf(opts.Out, "✓ Logged out from %s (%s)\n", a.server.Alias, a.server.URL)
			return nil
		},
	}
}
