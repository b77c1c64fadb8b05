package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"award-seat-alerts/internal/app"
)

var stateShowLimit int

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or trim the cooldown store",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent cooldown entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if stateShowLimit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}

		opts := app.StateShowOptions{
			Limit: stateShowLimit,
		}

		return getApp().StateShow(opts)
	},
}

var statePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cooldown entries past their retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().StatePrune()
	},
}

func init() {
	stateShowCmd.Flags().IntVar(&stateShowLimit, "limit", 20, "Number of entries to display (0 for all)")

	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(statePruneCmd)
}
