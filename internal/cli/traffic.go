package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/wire"
)

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Send the test set to the endpoint, one tagged request per row",
	Long: `Invokes the endpoint once per row of the test set, tagging row i with the
inference id {INFERENCE_ID_PREFIX}{i}, and writes every request and response to
the traffic hand-off. Results sent before a failure are still written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		trainPath, _ := cmd.Flags().GetString("trainmodel-output")
		testPath, _ := cmd.Flags().GetString("testendpoint-output")
		limit, _ := cmd.Flags().GetInt("limit")
		every, _ := cmd.Flags().GetInt("progress-every")

		if limit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		return wire.TrafficAdapter().Send(ctx, primary.SendTrafficRequest{
			DeployOutputPath: deployPath,
			TrainOutputPath:  trainPath,
			TestOutputPath:   testPath,
			Limit:            limit,
		}, every)
	},
}

func init() {
	addDeployFlag(trafficCmd)
	addTrainFlag(trafficCmd)
	trafficCmd.Flags().String("testendpoint-output", handle.DefaultTestOutput, "Where to write the requests and responses")
	trafficCmd.Flags().Int("limit", 0, "Send at most this many rows (0 sends all)")
	trafficCmd.Flags().Int("progress-every", 50, "Print progress every N requests (0 disables)")
}

// TrafficCmd returns the traffic command
func TrafficCmd() *cobra.Command {
	return trafficCmd
}
