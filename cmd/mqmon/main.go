package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/cli"
	"github.com/example/mqmon/internal/version"
	"github.com/example/mqmon/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mqmon",
		Short:   "mqmon - model-quality monitoring for SageMaker endpoints",
		Version: version.String(),
		Long: `mqmon sets up hourly model-quality monitoring for a deployed SageMaker
endpoint, drives test traffic through it and produces the ground-truth labels
the monitor compares the captured predictions against.`,
		PersistentPreRunE: cli.Bootstrap,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Monitoring lifecycle
	rootCmd.AddCommand(cli.SetupCmd())
	rootCmd.AddCommand(cli.ShowCmd())
	rootCmd.AddCommand(cli.StopCmd())

	// Endpoint
	rootCmd.AddCommand(cli.WaitEndpointCmd())
	rootCmd.AddCommand(cli.TrafficCmd())
	rootCmd.AddCommand(cli.CleanupCmd())

	// Captures and labels
	rootCmd.AddCommand(cli.CapturesCmd())
	rootCmd.AddCommand(cli.GroundTruthCmd())

	rootCmd.AddCommand(cli.HandlesCmd())

	err := rootCmd.Execute()
	if serr := wire.Shutdown(context.Background()); serr != nil {
		log := wire.Log()
		log.Warn().Err(serr).Msg("shutdown incomplete")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
