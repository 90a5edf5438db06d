package cli

import (
	"github.com/spf13/cobra"

	"github.com/absmach/rendezvous/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
)

var rsdk sdk.SDK

// SetSDK sets the coordinator SDK instance used by all commands.
func SetSDK(s sdk.SDK) {
	rsdk = s
}

func NewClientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients [register|list|size|heartbeat|deregister]",
		Short: "Clients manager",
		Long:  `Register, list, heartbeat and deregister coordinator clients.`,
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register client",
		Long:  `Register a new client and print its identity.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			session, err := rsdk.Register()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, session)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Long:  `List registered clients in join order.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := rsdk.ListClients(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	sizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Alive client count",
		Long:  `Count clients currently alive, sweeping stale sessions first.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			size, err := rsdk.QuerySize()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, map[string]uint64{"size": size})
		},
	}

	heartbeatCmd := &cobra.Command{
		Use:   "heartbeat <id>",
		Short: "Heartbeat client",
		Long:  `Refresh a client's liveness timestamp.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := rsdk.Heartbeat(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd, "OK")
		},
	}

	deregisterCmd := &cobra.Command{
		Use:   "deregister <id>",
		Short: "Deregister client",
		Long:  `Remove a client's session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := rsdk.Deregister(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd, "OK")
		},
	}

	cmd.AddCommand(registerCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(sizeCmd)
	cmd.AddCommand(heartbeatCmd)
	cmd.AddCommand(deregisterCmd)

	return cmd
}
