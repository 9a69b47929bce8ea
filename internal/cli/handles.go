package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/wire"
)

var handlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "Inspect the history of resource handles",
	Long: `Every command that writes a deploy hand-off also appends the resources it
names to a local ledger. A handle stays active until a newer handle with the
same role is recorded from the same hand-off.`,
}

var handlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded handles, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		role, _ := cmd.Flags().GetString("role")
		source, _ := cmd.Flags().GetString("source")
		active, _ := cmd.Flags().GetBool("active")
		limit, _ := cmd.Flags().GetInt("limit")

		if err := validateRole(role); err != nil {
			return err
		}
		if limit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		return wire.HandleAdapter().List(ctx, primary.HandleFilters{
			Source:     source,
			Role:       role,
			ActiveOnly: active,
			Limit:      limit,
		})
	},
}

var handlesRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the handles of a deploy hand-off",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		return wire.HandleAdapter().Record(ctx, deployPath)
	},
}

func init() {
	handlesListCmd.Flags().String("role", "", "Filter by role (endpoint|model|monitor|schedule)")
	handlesListCmd.Flags().String("source", "", "Filter by hand-off file")
	handlesListCmd.Flags().Bool("active", false, "Only show handles that have not been superseded")
	handlesListCmd.Flags().Int("limit", 0, "Show at most this many handles (0 shows all)")

	addDeployFlag(handlesRecordCmd)

	handlesCmd.AddCommand(handlesListCmd)
	handlesCmd.AddCommand(handlesRecordCmd)
}

// HandlesCmd returns the handles command
func HandlesCmd() *cobra.Command {
	return handlesCmd
}
