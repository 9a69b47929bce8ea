package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/wire"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the monitoring schedule status and last execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		name, _ := cmd.Flags().GetString("name")

		return wire.ScheduleAdapter().Show(ctx, deployPath, name)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Delete the monitoring schedule and wait until it is gone",
	Long: `Deletes the monitoring schedule recorded in the deploy hand-off (or --name)
and waits for the deletion to complete. Stopping a schedule that does not exist
succeeds without changing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		name, _ := cmd.Flags().GetString("name")

		return wire.ScheduleAdapter().Stop(ctx, deployPath, name)
	},
}

func init() {
	for _, c := range []*cobra.Command{showCmd, stopCmd} {
		addDeployFlag(c)
		c.Flags().String("name", "", "Schedule name (overrides the deploy hand-off)")
	}
}

// ShowCmd returns the show command
func ShowCmd() *cobra.Command {
	return showCmd
}

// StopCmd returns the stop command
func StopCmd() *cobra.Command {
	return stopCmd
}
