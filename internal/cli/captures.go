package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/core/groundtruth"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/wire"
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "List the captured inference files of one hour",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		partition, _ := cmd.Flags().GetString("capture-prefix")
		count, _ := cmd.Flags().GetBool("count")

		if err := validatePartition(partition); err != nil {
			return err
		}

		return wire.CaptureAdapter().List(ctx, primary.ListCapturesRequest{
			DeployOutputPath: deployPath,
			Partition:        partition,
			CountRecords:     count,
		})
	},
}

var groundTruthCmd = &cobra.Command{
	Use:   "groundtruth",
	Short: "Label the captured inferences of one hour and upload them as ground truth",
	Long: `Reads every capture file of the hour given by --capture-prefix, labels each
captured request with the chosen policy and uploads the records as one JSON Lines
object under {ground truth uri}/YYYY/MM/DD/HH/.

Policies:
  random   label 1 with probability --positive-rate, else 0
  compare  1.0 if the model prediction matches the test label, else 0.0
  truth    the test label itself`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := NewContext()
		defer cancel()

		deployPath, _ := cmd.Flags().GetString("deploymodel-output")
		trainPath, _ := cmd.Flags().GetString("trainmodel-output")
		partition, _ := cmd.Flags().GetString("capture-prefix")
		policy, _ := cmd.Flags().GetString("policy")
		rate, _ := cmd.Flags().GetFloat64("positive-rate")
		skipInvalid, _ := cmd.Flags().GetBool("skip-invalid")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if err := validatePartition(partition); err != nil {
			return err
		}
		if err := validatePolicy(policy); err != nil {
			return err
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("--positive-rate must be between 0 and 1, got %g", rate)
		}

		req := primary.GenerateGroundTruthRequest{
			DeployOutputPath: deployPath,
			TrainOutputPath:  trainPath,
			Partition:        partition,
			Policy:           policy,
			PositiveRate:     rate,
			SkipInvalid:      skipInvalid,
			DryRun:           dryRun,
		}
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			req.Seed = &seed
		}

		return wire.CaptureAdapter().GenerateGroundTruth(ctx, req)
	},
}

func init() {
	addDeployFlag(capturesCmd)
	capturesCmd.Flags().String("capture-prefix", "", "Capture hour in the format YYYY/MM/DD/HH (required)")
	capturesCmd.Flags().Bool("count", false, "Count the records in each file")

	addDeployFlag(groundTruthCmd)
	addTrainFlag(groundTruthCmd)
	groundTruthCmd.Flags().String("capture-prefix", "", "Capture hour in the format YYYY/MM/DD/HH (required)")
	groundTruthCmd.Flags().String("policy", groundtruth.PolicyRandom, "Labelling policy (random|compare|truth)")
	groundTruthCmd.Flags().Float64("positive-rate", groundtruth.DefaultPositiveRate, "Probability of label 1 for the random policy")
	groundTruthCmd.Flags().Uint64("seed", 0, "Seed for the random policy (default: time based)")
	groundTruthCmd.Flags().Bool("skip-invalid", false, "Skip undecodable capture records instead of aborting")
	groundTruthCmd.Flags().Bool("dry-run", false, "Build the batch but do not upload it")
}

// CapturesCmd returns the captures command
func CapturesCmd() *cobra.Command {
	return capturesCmd
}

// GroundTruthCmd returns the groundtruth command
func GroundTruthCmd() *cobra.Command {
	return groundTruthCmd
}
