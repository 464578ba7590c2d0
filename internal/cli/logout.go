package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/errmsg"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored credentials of --key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(appOptions{})
		if err != nil {
			return fail(errmsg.OpInitialize, err)
		}
		defer a.close()

		key := persistenceKey()
		if _, err := a.coord.Start(ctx, key); err != nil {
			return fail(errmsg.OpConnect, err)
		}
		s, err := a.coord.Logout(ctx)
		if err != nil {
			return fail(errmsg.OpLogout, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %q, now on anonymous session %s (generation %d)\n",
			key, s.ID(), s.Generation())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
