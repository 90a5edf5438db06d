package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	rendezvous "github.com/absmach/rendezvous"
	"github.com/absmach/rendezvous/cli"
	"github.com/absmach/rendezvous/pkg/sdk"
)

const (
	defCoordinatorURL  = "http://localhost:7070"
	defTLSVerification = false
)

func main() {
	sdkConf := sdk.Config{
		CoordinatorURL:  defCoordinatorURL,
		TLSVerification: defTLSVerification,
	}

	if path := os.Getenv("RENDEZVOUS_CLI_CONFIG"); path != "" {
		cfg, err := rendezvous.LoadConfig(path)
		if err != nil {
			log.Fatal(err)
		}
		if cfg.CLI.CoordinatorURL != "" {
			sdkConf.CoordinatorURL = cfg.CLI.CoordinatorURL
		}
		sdkConf.TLSVerification = cfg.CLI.TLSVerification
		sdkConf.UseCBOR = cfg.CLI.UseCBOR
	}

	rootCmd := &cobra.Command{
		Use:   "rendezvous-cli",
		Short: "Rendezvous CLI",
		Long:  `Rendezvous CLI is a command line interface for interacting with the round coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.SetSDK(sdk.NewSDK(sdkConf))
		},
	}

	rootCmd.AddCommand(cli.NewClientsCmd())
	rootCmd.AddCommand(cli.NewRoundsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
