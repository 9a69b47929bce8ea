package primary

import (
	"context"
	"time"

	"github.com/example/mqmon/internal/core/schedule"
)

// ScheduleService defines the primary port for monitoring schedule lifecycle operations.
type ScheduleService interface {
	// SetupMonitor baselines the model, creates an hourly model-quality
	// schedule for the deployed endpoint and records it in the deploy hand-off.
	SetupMonitor(ctx context.Context, req SetupMonitorRequest) (*SetupMonitorResponse, error)

	// CreateSchedule creates a schedule and waits until it leaves Pending.
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (schedule.Outcome, error)

	// DescribeSchedule returns the schedule. A missing schedule is returned
	// with State NotFound, not as an error.
	DescribeSchedule(ctx context.Context, name string) (*Schedule, error)

	// DeleteSchedule deletes a schedule and waits until it is gone.
	// Deleting an absent schedule succeeds without any remote mutation.
	DeleteSchedule(ctx context.Context, name string) (schedule.Outcome, error)

	// ResolveScheduleName returns override if set, else the schedule name
	// recorded in the deploy hand-off at deployPath.
	ResolveScheduleName(ctx context.Context, deployPath, override string) (string, error)
}

// SetupMonitorRequest contains parameters for setting up monitoring.
type SetupMonitorRequest struct {
	DeployOutputPath string
	TrainOutputPath  string
	ProblemType      string
	// SkipBaseline reuses constraints already present under the baseline
	// results URI instead of running a new baselining job.
	SkipBaseline bool
}

// SetupMonitorResponse contains the result of setting up monitoring.
type SetupMonitorResponse struct {
	ScheduleName       string
	BaselineJobName    string
	BaselineDataURI    string
	BaselineResultsURI string
	GroundTruthURI     string
	Outcome            schedule.Outcome
}

// CreateScheduleRequest contains parameters for creating a schedule.
type CreateScheduleRequest struct {
	ScheduleName   string
	EndpointName   string
	CaptureEnabled bool
	GroundTruthURI string
	ConstraintsURI string
	StatisticsURI  string
	OutputURI      string
	ProblemType    string
	CronExpression string
}

// Schedule represents a monitoring schedule at the port boundary.
type Schedule struct {
	Name          string
	ARN           string
	State         schedule.State
	FailureReason string
	EndpointName  string
	CreatedAt     time.Time
	ModifiedAt    time.Time

	LastExecutionStatus string
	LastExecutionTime   time.Time
	LastExecutionReport string
}
