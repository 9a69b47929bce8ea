package cli

import (
	gocontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/mqmon/internal/config"
	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/wire"
)

// Global flags bound by the root command.
var (
	configPath string
	region     string
	profile    string
	bucket     string
	logLevel   string
	debug      bool
)

// BindGlobalFlags registers the flags every command shares.
func BindGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&region, "region", "", "AWS region (overrides AWS_DEFAULT_REGION)")
	flags.StringVar(&profile, "profile", "", "AWS profile (overrides AWS_PROFILE)")
	flags.StringVar(&bucket, "bucket", "", "Bucket for baselines and ground truth (default sagemaker-{region}-{account})")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
}

// Bootstrap loads the configuration and wires the services. It runs as the
// root command's PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Flags win over file and environment.
	flags := cmd.Flags()
	if flags.Changed("region") {
		cfg.AWS.Region = region
	}
	if flags.Changed("profile") {
		cfg.AWS.Profile = profile
	}
	if flags.Changed("bucket") {
		cfg.Bucket = bucket
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debug
	}

	if err := wire.Init(cmd.Context(), cfg, cmd.Name()); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// NewContext returns a context cancelled on SIGINT or SIGTERM, so that long
// waits stop cleanly.
func NewContext() (gocontext.Context, gocontext.CancelFunc) {
	return signal.NotifyContext(gocontext.Background(), os.Interrupt, syscall.SIGTERM)
}

func addDeployFlag(cmd *cobra.Command) {
	cmd.Flags().String("deploymodel-output", handle.DefaultDeployOutput, "JSON output from the deploy script")
}

func addTrainFlag(cmd *cobra.Command) {
	cmd.Flags().String("trainmodel-output", handle.DefaultTrainOutput, "JSON output from the train script")
}
