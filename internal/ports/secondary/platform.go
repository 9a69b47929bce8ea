package secondary

import (
	"context"
	"time"
)

// MonitoringPlatform defines the secondary port for the remote monitoring scheduler.
type MonitoringPlatform interface {
	// CreateMonitoringSchedule creates the job definition and the recurring
	// schedule that runs it. It returns the schedule ARN.
	CreateMonitoringSchedule(ctx context.Context, input *CreateScheduleInput) (string, error)

	// DescribeMonitoringSchedule returns the current schedule description.
	// Returns an error wrapping ErrNotFound if the schedule does not exist.
	DescribeMonitoringSchedule(ctx context.Context, name string) (*ScheduleDescription, error)

	// DeleteMonitoringSchedule issues the delete request. Deletion completes
	// asynchronously; callers poll DescribeMonitoringSchedule.
	DeleteMonitoringSchedule(ctx context.Context, name string) error

	// StartBaselineJob starts a model-quality baselining processing job.
	StartBaselineJob(ctx context.Context, input *BaselineJobInput) error

	// DescribeBaselineJob returns the job status and failure reason.
	// Returns an error wrapping ErrNotFound if the job does not exist.
	DescribeBaselineJob(ctx context.Context, name string) (*JobDescription, error)
}

// BaselineJobInput carries the parameters of a baselining job.
type BaselineJobInput struct {
	JobName              string
	RoleARN              string
	ImageURI             string
	DatasetURI           string // CSV with header
	OutputURI            string
	ProblemType          string
	InferenceAttribute   string
	GroundTruthAttribute string
	MaxRuntime           time.Duration
	InstanceType         string
}

// JobDescription is what the platform reports about a processing job.
type JobDescription struct {
	Name          string
	Status        string
	FailureReason string
	OutputURI     string
}

// CreateScheduleInput carries everything needed to create a model-quality schedule.
type CreateScheduleInput struct {
	ScheduleName      string
	JobDefinitionName string
	EndpointName      string
	RoleARN           string
	ImageURI          string

	GroundTruthURI string
	ConstraintsURI string
	StatisticsURI  string
	OutputURI      string

	ProblemType        string // BinaryClassification, MulticlassClassification or Regression
	InferenceAttribute string // "0" for single-column CSV output
	CronExpression     string
	MaxRuntime         time.Duration
	InstanceType       string
}

// ScheduleDescription is what the platform reports about a schedule.
type ScheduleDescription struct {
	Name          string
	ARN           string
	Status        string
	FailureReason string
	EndpointName  string
	CreatedAt     time.Time
	ModifiedAt    time.Time

	LastExecutionStatus string
	LastExecutionTime   time.Time
	LastExecutionReport string
}

// EndpointPlatform defines the secondary port for endpoint and model resources.
type EndpointPlatform interface {
	// DescribeEndpoint returns the endpoint status and failure reason.
	// Returns an error wrapping ErrNotFound if the endpoint does not exist.
	DescribeEndpoint(ctx context.Context, name string) (*EndpointDescription, error)

	// EndpointModels returns the model names served by an endpoint config.
	EndpointModels(ctx context.Context, configName string) ([]string, error)

	// DeleteEndpoint deletes the endpoint. Returns ErrNotFound if absent.
	DeleteEndpoint(ctx context.Context, name string) error

	// DeleteEndpointConfig deletes the endpoint configuration. Returns ErrNotFound if absent.
	DeleteEndpointConfig(ctx context.Context, name string) error

	// DeleteModel deletes the model. Returns ErrNotFound if absent.
	DeleteModel(ctx context.Context, name string) error
}

// EndpointDescription is what the platform reports about an endpoint.
type EndpointDescription struct {
	Name          string
	ARN           string
	ConfigName    string
	Status        string
	FailureReason string
	CaptureURI    string
	CaptureOn     bool
}

// InferenceInvoker sends one synchronous prediction request.
type InferenceInvoker interface {
	Invoke(ctx context.Context, req *InvokeRequest) ([]byte, error)
}

// InvokeRequest is a single tagged inference call.
type InvokeRequest struct {
	EndpointName string
	InferenceID  string
	ContentType  string
	Accept       string
	Body         []byte
}

// BucketResolver resolves the default bucket when none is configured.
type BucketResolver interface {
	DefaultBucket(ctx context.Context) (string, error)
}
