package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/wire"
)

var waitEndpointCmd = &cobra.Command{
	Use:   "wait-endpoint",
	Short: "Wait until the deployed endpoint is in service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		name, _ := cmd.Flags().GetString("name")

		return wire.EndpointAdapter().Wait(ctx, deployPath, name)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete the schedule, model, endpoint and endpoint config",
	Long: `Deletes every resource recorded in the deploy hand-off: the monitoring
schedule first, then the model, the endpoint and its configuration. Resources
that are already gone are skipped. Object store data is never deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")

		return wire.EndpointAdapter().Cleanup(ctx, deployPath)
	},
}

func init() {
	addDeployFlag(waitEndpointCmd)
	waitEndpointCmd.Flags().String("name", "", "Endpoint name (overrides the deploy hand-off)")

	addDeployFlag(cleanupCmd)
}

// WaitEndpointCmd returns the wait-endpoint command
func WaitEndpointCmd() *cobra.Command {
	return waitEndpointCmd
}

// CleanupCmd returns the cleanup command
func CleanupCmd() *cobra.Command {
	return cleanupCmd
}
