package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/cmd/nodeprov/handlers"
)

// PowerCycle returns the power-cycle command.
func PowerCycle() *cobra.Command {
	var (
		configPath string
		nodeID     string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "power-cycle",
		Short: "Shut a node down and power it back on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.PowerCycle(cmd.Context(), configPath, nodeID, yes)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&nodeID, "node", "", "Node ID (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
