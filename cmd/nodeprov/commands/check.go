package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/cmd/nodeprov/handlers"
)

// Check returns the check command.
func Check() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify provider access, region, SSH key and nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Check(cmd.Context(), configPath)
		},
	}

	addConfigFlag(cmd, &configPath)

	return cmd
}
