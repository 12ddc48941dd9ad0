package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftwatch/internal/reconciler"
)

func newPriorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "priority <type>...",
		Short: "Show the check priority of resource types",
		Long: `Show the priority tier and check interval the scheduler assigns to each
resource type. Types are matched on their longest known dot-separated
prefix; unknown types get NORMAL priority.

Example:
  driftwatch priority wan.pppoe vpn.wireguard.peer system.ntp`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, resourceType := range args {
				priority := reconciler.GetResourcePriority(resourceType)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (every %s)\n", resourceType, priority, priority.Interval())
			}
		},
	}
}
