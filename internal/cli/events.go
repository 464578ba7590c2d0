package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/engine"
)

var eventsJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the player event types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		types := engine.EventTypes()
		if eventsJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(types)
		}
		for _, t := range types {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsJSON, "json", "j", false, "output as a JSON array")
	rootCmd.AddCommand(eventsCmd)
}
