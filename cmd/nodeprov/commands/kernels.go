package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/cmd/nodeprov/handlers"
)

// Kernels returns the kernels command.
func Kernels() *cobra.Command {
	var configPath, nodeID string

	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "List kernels available to a node and show which would be selected",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Kernels(cmd.Context(), configPath, nodeID)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&nodeID, "node", "", "Node ID (required)")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
