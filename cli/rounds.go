package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/absmach/rendezvous/params"
)

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [submit|status|snapshot]",
		Short: "Rounds manager",
		Long:  `Submit updates, inspect the open round and fetch the published aggregate.`,
	}

	submitCmd := &cobra.Command{
		Use:   "submit <client_id> <update.json>",
		Short: "Submit update",
		Long: `Submit a parameter map for the open round and block until the
round's aggregate is published.

The update file holds a JSON object mapping parameter names to arrays of
numbers, e.g. {"w": [0.1, 0.2], "b": [0.0]}.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			var update params.Map
			if err := json.Unmarshal(data, &update); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			result, err := rsdk.Submit(args[0], update)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, result)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Round status",
		Long:  `Show the open round's sequence number and collected count.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			status, err := rsdk.RoundStatus()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, status)
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch snapshot",
		Long:  `Fetch the most recently published aggregate.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			snap, err := rsdk.FetchSnapshot()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, snap)
		},
	}

	cmd.AddCommand(submitCmd)
	cmd.AddCommand(statusCmd)
	cmd.AddCommand(snapshotCmd)

	return cmd
}
