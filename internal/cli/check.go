package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"award-seat-alerts/internal/service"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single poll cycle and report its outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := getApp().Check(cmd.Context())
		if result == nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "outcome: %s\npages: %d\nfetched: %d\ncandidates: %d\nalerted: %d\n",
			result.Outcome, result.Pages, result.Fetched, result.Candidates, len(result.Alerted))
		for _, e := range result.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", e)
		}

		if result.Outcome == service.OutcomeAborted {
			return err
		}
		return nil
	},
}
