package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ContractForgeEVM/contractforge/internal/cli"
	"github.com/ContractForgeEVM/contractforge/internal/logging"
	"github.com/ContractForgeEVM/contractforge/internal/trust"
)

func BuildRoot() *cobra.Command {
	var (
		debug    bool
		caBundle string
	)
	root := &cobra.Command{
		Use:           "contractforge",
		Short:         "Security findings for Solidity contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		// setup problems never stop a command; stdout stays reserved for its output
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := logging.InitLogger(debug); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: logger disabled:", err)
			}
			// a bundle from the project config is installed by analyze
			if caBundle != "" {
				if err := trust.Install(caBundle); err != nil {
					logging.Logger.Warnw("ca bundle ignored", "err", err)
				}
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose logging on stderr")
	root.PersistentFlags().StringVar(&caBundle, "ca-bundle", "", "CA bundle exported to child analyzers")
	cli.AddCommands(root)
	return root
}
