package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/cmd/nodeprov/handlers"
)

// Plan returns the plan command.
func Plan() *cobra.Command {
	var configPath, kernelVersion string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the install commands without running them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Plan(cmd.Context(), configPath, kernelVersion)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&kernelVersion, "kernel", "", "Also print kernel install commands for this version (e.g. 3.19.1-200.fc20.x86_64)")

	return cmd
}
