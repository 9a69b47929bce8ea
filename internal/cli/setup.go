package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/core/schedule"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/wire"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Baseline the deployed model and schedule hourly model-quality monitoring",
	Long: `Runs a model-quality baselining job on the validation set, creates an hourly
monitoring schedule for the endpoint and records the schedule, baseline and
ground-truth locations back into the deploy hand-off.

Requires data capture to be enabled on the endpoint (monitor.s3_capture_upload_path).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		trainPath, _ := cmd.Flags().GetString("trainmodel-output")
		problemType, _ := cmd.Flags().GetString("problem-type")
		skipBaseline, _ := cmd.Flags().GetBool("skip-baseline")

		if err := validateProblemType(problemType); err != nil {
			return err
		}

		return wire.ScheduleAdapter().Setup(ctx, primary.SetupMonitorRequest{
			DeployOutputPath: deployPath,
			TrainOutputPath:  trainPath,
			ProblemType:      problemType,
			SkipBaseline:     skipBaseline,
		})
	},
}

func init() {
	addDeployFlag(setupCmd)
	addTrainFlag(setupCmd)
	setupCmd.Flags().String("problem-type", schedule.DefaultProblemType, "Model problem type (Regression|BinaryClassification|MulticlassClassification)")
	setupCmd.Flags().Bool("skip-baseline", false, "Reuse constraints already under the baseline results location")
}

// SetupCmd returns the setup command
func SetupCmd() *cobra.Command {
	return setupCmd
}
