// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/internal/logging"
)

// Root returns the root command for the nodeprov CLI.
func Root() *cobra.Command {
	var (
		verbose   bool
		logFormat string
	)

	cmd := &cobra.Command{
		Use:           "nodeprov",
		Short:         "Provision cloud nodes onto a pinned kernel and install the node agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := logging.ParseFormat(logFormat)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, logging.Options{Format: format, Verbose: verbose})
			cmd.SetContext(logr.NewContext(cmd.Context(), logger))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log retries and other detail")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "Log format: auto, text or json")

	cmd.AddCommand(Provision())
	cmd.AddCommand(Kernels())
	cmd.AddCommand(PowerCycle())
	cmd.AddCommand(Plan())
	cmd.AddCommand(Check())
	cmd.AddCommand(Version())

	return cmd
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", "nodeprov.yaml", "Path to configuration file")
}
