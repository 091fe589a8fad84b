package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeprov/cmd/nodeprov/handlers"
)

// Provision returns the provision command.
func Provision() *cobra.Command {
	var opts handlers.ProvisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Switch nodes to the latest matching kernel and install the node agent",
		Long: `Provision brings every configured node (or the ones selected with --node)
to a provisioned state.

On the dynamic backend each node is switched to the newest provider kernel
matching the configured prefix, the matching kernel packages are installed
over SSH, the node is power-cycled, and the node agent is installed. On the
static backend only the install step runs.

Nodes are provisioned concurrently. A summary is printed at the end and the
command exits non-zero if any node failed.

Example:
  nodeprov provision -c nodeprov.yaml
  nodeprov provision -c nodeprov.yaml --node 3797602 --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	addConfigFlag(cmd, &opts.ConfigPath)
	cmd.Flags().StringSliceVar(&opts.NodeIDs, "node", nil, "Provision only these node IDs (repeatable)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
