// Package wire provides dependency injection for mqmon.
// Init builds every adapter and service once; the accessors return the
// shared instances.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/adapters/awsclient"
	cliadapter "github.com/example/mqmon/internal/adapters/cli"
	"github.com/example/mqmon/internal/adapters/filesystem"
	"github.com/example/mqmon/internal/adapters/metrics"
	"github.com/example/mqmon/internal/adapters/miniostore"
	"github.com/example/mqmon/internal/adapters/s3store"
	"github.com/example/mqmon/internal/adapters/sagemaker"
	"github.com/example/mqmon/internal/adapters/sqlite"
	"github.com/example/mqmon/internal/app"
	"github.com/example/mqmon/internal/config"
	"github.com/example/mqmon/internal/db"
	"github.com/example/mqmon/internal/logger"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// MetricsJob is the Pushgateway job name.
const MetricsJob = "mqmon"

var (
	scheduleService    primary.ScheduleService
	endpointService    primary.EndpointService
	captureService     primary.CaptureService
	groundTruthService primary.GroundTruthService
	trafficService     primary.TrafficService
	handleService      primary.HandleService

	recorder *metrics.Recorder
	database *sql.DB

	once    sync.Once
	initErr error
)

// Init builds every service from cfg. command labels pushed metrics.
// Only the first call has any effect.
func Init(ctx context.Context, cfg *config.Config, command string) error {
	once.Do(func() {
		initErr = initServices(ctx, cfg, command)
	})
	return initErr
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices(ctx context.Context, cfg *config.Config, command string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	awsCfg, err := awsclient.Load(ctx, awsclient.Options{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return err
	}

	// Secondary adapters
	platform := sagemaker.NewPlatform(awsCfg)
	invoker := sagemaker.NewInvoker(awsCfg)
	buckets := awsclient.NewBucketResolver(awsCfg)
	store, err := objectStore(cfg, awsCfg)
	if err != nil {
		return err
	}
	handles, err := filesystem.NewHandleRepository("")
	if err != nil {
		return err
	}
	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	recorder = metrics.New(cfg.PushgatewayURL, MetricsJob, command)

	settings := Settings(cfg)

	// Services (primary ports)
	schedules := app.NewScheduleService(platform, buckets, handles, ledger, recorder, settings, logger.WithComponent("schedule"))
	captures := app.NewCaptureService(store, handles, recorder, logger.WithComponent("capture"))

	scheduleService = schedules
	captureService = captures
	endpointService = app.NewEndpointService(platform, schedules, handles, recorder, settings, logger.WithComponent("endpoint"))
	groundTruthService = app.NewGroundTruthService(captures, store, handles, recorder, settings, logger.WithComponent("groundtruth"))
	trafficService = app.NewTrafficService(invoker, store, handles, recorder, settings, logger.WithComponent("traffic"))
	handleService = app.NewHandleService(ledger, handles, logger.WithComponent("handles"))

	return nil
}

// Settings maps the configuration onto service settings.
func Settings(cfg *config.Config) app.Settings {
	s := app.DefaultSettings()
	s.JobPrefix = cfg.JobPrefix
	s.InferenceIDPrefix = cfg.InferenceIDPrefix
	s.Bucket = cfg.Bucket
	s.RoleARN = cfg.AWS.RoleARN
	s.MonitorImageURI = cfg.MonitorImageURI
	if cfg.InstanceType != "" {
		s.InstanceType = cfg.InstanceType
	}
	s.PollInterval = cfg.PollInterval
	s.PollTimeout = cfg.PollTimeout
	s.MaxTransientRetries = cfg.PollMaxRetries
	return s
}

func objectStore(cfg *config.Config, awsCfg aws.Config) (secondary.ObjectStore, error) {
	if strings.EqualFold(cfg.Store.Backend, config.StoreMinIO) {
		return miniostore.New(miniostore.Config{
			Endpoint:  cfg.Store.MinIO.Endpoint,
			AccessKey: cfg.Store.MinIO.AccessKey,
			SecretKey: cfg.Store.MinIO.SecretKey,
			UseSSL:    cfg.Store.MinIO.UseSSL,
		})
	}
	return s3store.New(awsCfg), nil
}

// openLedger returns nil when the ledger is switched off.
func openLedger(cfg *config.Config) (secondary.HandleLedger, error) {
	if !cfg.LedgerEnabled() {
		return nil, nil
	}
	path := cfg.LedgerPath
	if path == "" {
		var err error
		if path, err = db.DefaultPath(); err != nil {
			return nil, err
		}
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open handle ledger: %w", err)
	}
	database = conn
	return sqlite.NewHandleLedger(conn), nil
}

// Shutdown pushes metrics and closes the ledger. Safe to call when Init
// failed or was never called.
func Shutdown(ctx context.Context) error {
	var errs []error
	if recorder != nil {
		if err := recorder.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if database != nil {
		if err := database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close handle ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ScheduleService returns the singleton ScheduleService instance.
func ScheduleService() primary.ScheduleService { return scheduleService }

// EndpointService returns the singleton EndpointService instance.
func EndpointService() primary.EndpointService { return endpointService }

// CaptureService returns the singleton CaptureService instance.
func CaptureService() primary.CaptureService { return captureService }

// GroundTruthService returns the singleton GroundTruthService instance.
func GroundTruthService() primary.GroundTruthService { return groundTruthService }

// TrafficService returns the singleton TrafficService instance.
func TrafficService() primary.TrafficService { return trafficService }

// HandleService returns the singleton HandleService instance.
func HandleService() primary.HandleService { return handleService }

// Log returns the logger for the CLI layer.
func Log() zerolog.Logger { return logger.WithComponent("cli") }

// ScheduleAdapter returns a new ScheduleAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ScheduleAdapter() *cliadapter.ScheduleAdapter {
	return ScheduleAdapterWithOutput(os.Stdout)
}

// ScheduleAdapterWithOutput returns a new ScheduleAdapter writing to the given output.
func ScheduleAdapterWithOutput(out io.Writer) *cliadapter.ScheduleAdapter {
	return cliadapter.NewScheduleAdapter(scheduleService, out)
}

// EndpointAdapter returns a new EndpointAdapter writing to stdout.
func EndpointAdapter() *cliadapter.EndpointAdapter {
	return cliadapter.NewEndpointAdapter(endpointService, os.Stdout)
}

// CaptureAdapter returns a new CaptureAdapter writing to stdout.
func CaptureAdapter() *cliadapter.CaptureAdapter {
	return cliadapter.NewCaptureAdapter(captureService, groundTruthService, os.Stdout)
}

// TrafficAdapter returns a new TrafficAdapter writing to stdout.
func TrafficAdapter() *cliadapter.TrafficAdapter {
	return cliadapter.NewTrafficAdapter(trafficService, os.Stdout)
}

// HandleAdapter returns a new HandleAdapter writing to stdout.
func HandleAdapter() *cliadapter.HandleAdapter {
	return cliadapter.NewHandleAdapter(handleService, os.Stdout)
}
