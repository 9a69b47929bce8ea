package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/baseline"
	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/core/poll"
	"github.com/example/mqmon/internal/core/schedule"
	"github.com/example/mqmon/internal/core/storage"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// ScheduleServiceImpl implements the ScheduleService interface.
type ScheduleServiceImpl struct {
	monitoring secondary.MonitoringPlatform
	buckets    secondary.BucketResolver
	handles    secondary.HandleRepository
	ledger     secondary.HandleLedger
	metrics    secondary.Metrics
	settings   Settings
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewScheduleService creates a new ScheduleService with injected dependencies.
// ledger may be nil when handle history is disabled.
func NewScheduleService(
	monitoring secondary.MonitoringPlatform,
	buckets secondary.BucketResolver,
	handles secondary.HandleRepository,
	ledger secondary.HandleLedger,
	metrics secondary.Metrics,
	settings Settings,
	log zerolog.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		monitoring: monitoring,
		buckets:    buckets,
		handles:    handles,
		ledger:     ledger,
		metrics:    metrics,
		settings:   settings,
		log:        log,
		now:        time.Now,
		inFlight:   make(map[string]bool),
	}
}

// SetupMonitor baselines the model and creates an hourly model-quality schedule.
func (s *ScheduleServiceImpl) SetupMonitor(ctx context.Context, req primary.SetupMonitorRequest) (*primary.SetupMonitorResponse, error) {
	deploy, err := loadDeploy(ctx, s.handles, req.DeployOutputPath)
	if err != nil {
		return nil, err
	}
	endpointName, err := deploy.EndpointName()
	if err != nil {
		return nil, err
	}
	if _, err := deploy.CaptureUploadPath(); err != nil {
		return nil, err
	}

	problemType := req.ProblemType
	if problemType == "" {
		problemType = schedule.DefaultProblemType
	}
	if !schedule.ValidProblemType(problemType) {
		return nil, fmt.Errorf("unsupported problem type %q", problemType)
	}

	bucket, err := bucketFor(ctx, s.settings, s.buckets)
	if err != nil {
		return nil, err
	}

	// s3://{bucket}/{prefix}/{endpoint}/...
	root := storage.URI{Bucket: bucket}.Join(s.settings.JobPrefix, endpointName)
	resp := &primary.SetupMonitorResponse{
		BaselineDataURI:    root.Join("baselining", "data").String(),
		BaselineResultsURI: root.Join("baselining", "results").String(),
		GroundTruthURI:     root.Join("ground_truth_data").String(),
	}
	s.log.Info().
		Str("baseline_data_uri", resp.BaselineDataURI).
		Str("baseline_results_uri", resp.BaselineResultsURI).
		Str("ground_truth_uri", resp.GroundTruthURI).
		Msg("monitor locations")

	deploy.Monitor.Baseline = &handle.Baseline{DataURI: resp.BaselineDataURI, ResultsURI: resp.BaselineResultsURI}
	deploy.Monitor.GroundTruthURI = resp.GroundTruthURI

	now := s.now()
	if !req.SkipBaseline {
		jobName, err := s.runBaseline(ctx, req.TrainOutputPath, resp.BaselineResultsURI, problemType, now)
		if err != nil {
			return nil, err
		}
		resp.BaselineJobName = jobName
	}

	resp.ScheduleName = schedule.Name(s.settings.JobPrefix, now)
	deploy.Monitor.ScheduleName = resp.ScheduleName
	deploy.Monitor.JobDefinitionName = schedule.JobDefinitionName(resp.ScheduleName)
	s.log.Info().Str("schedule", resp.ScheduleName).Msg("monitoring schedule name")

	// The schedule exists remotely from the moment the create call succeeds,
	// so the hand-off is written then, before the wait can time out or be
	// interrupted.
	persist := func() error {
		if err := s.handles.SaveDeploy(ctx, req.DeployOutputPath, deploy); err != nil {
			return fmt.Errorf("failed to save deploy output: %w", err)
		}
		recordHandles(ctx, s.ledger, s.log, req.DeployOutputPath, deploy)
		return nil
	}

	outcome, err := s.createSchedule(ctx, primary.CreateScheduleRequest{
		ScheduleName:   resp.ScheduleName,
		EndpointName:   endpointName,
		CaptureEnabled: true,
		GroundTruthURI: resp.GroundTruthURI,
		ConstraintsURI: root.Join("baselining", "results", baseline.ConstraintsFile).String(),
		StatisticsURI:  root.Join("baselining", "results", baseline.StatisticsFile).String(),
		OutputURI:      resp.BaselineResultsURI,
		ProblemType:    problemType,
		CronExpression: schedule.HourlyCron,
	}, persist)
	if err != nil {
		return nil, err
	}
	resp.Outcome = outcome

	return resp, nil
}

func (s *ScheduleServiceImpl) runBaseline(ctx context.Context, trainPath, resultsURI, problemType string, now time.Time) (string, error) {
	train, err := loadTrain(ctx, s.handles, trainPath)
	if err != nil {
		return "", err
	}
	validate, err := train.BaselineDataURI()
	if err != nil {
		return "", err
	}
	dataset, err := storage.JoinURI(validate, baseline.DatasetFile)
	if err != nil {
		return "", fmt.Errorf("invalid baseline dataset location: %w", err)
	}
	if s.settings.RoleARN == "" {
		return "", errors.New("execution role ARN is required (set AWS_ROLE)")
	}

	name := baseline.JobName(s.settings.JobPrefix, now)
	s.log.Info().Str("job", name).Str("dataset", dataset).Msg("starting baselining job")

	err = s.monitoring.StartBaselineJob(ctx, &secondary.BaselineJobInput{
		JobName:              name,
		RoleARN:              s.settings.RoleARN,
		ImageURI:             s.settings.MonitorImageURI,
		DatasetURI:           dataset,
		OutputURI:            resultsURI,
		ProblemType:          problemType,
		InferenceAttribute:   baseline.InferenceAttribute,
		GroundTruthAttribute: baseline.GroundTruthAttribute,
		MaxRuntime:           baseline.DefaultMaxRuntime,
		InstanceType:         s.settings.InstanceType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start baselining job: %w", err)
	}

	var last *secondary.JobDescription
	fetch := func(ctx context.Context) (baseline.State, error) {
		d, err := s.monitoring.DescribeBaselineJob(ctx, name)
		if err != nil {
			return "", err
		}
		last = d
		return baseline.State(d.Status), nil
	}

	state, err := poll.WaitUntil(ctx, fetch, baseline.Terminal,
		pollOptions(s.settings, s.log, s.metrics, "baseline", name, baseline.StateNotFound))
	if err != nil {
		return "", fmt.Errorf("failed waiting for baselining job %s: %w", name, err)
	}

	reason := ""
	if last != nil {
		reason = last.FailureReason
	}
	if err := baseline.Evaluate(name, state, reason); err != nil {
		return "", err
	}
	s.log.Info().Str("job", name).Msg("baselining job completed")
	return name, nil
}

// CreateSchedule creates a schedule and waits until it leaves Pending.
// The returned error is non-nil only when the operation itself could not be
// carried out; a schedule that settles as Failed is a Fatal outcome.
func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, req primary.CreateScheduleRequest) (schedule.Outcome, error) {
	return s.createSchedule(ctx, req, nil)
}

// createSchedule is CreateSchedule with a hook run once the schedule exists
// remotely and before the wait starts. A hook error ends the operation.
func (s *ScheduleServiceImpl) createSchedule(ctx context.Context, req primary.CreateScheduleRequest, created func() error) (schedule.Outcome, error) {
	guard := schedule.CanCreateSchedule(schedule.CreateContext{
		ScheduleName:      req.ScheduleName,
		EndpointName:      req.EndpointName,
		CaptureEnabled:    req.CaptureEnabled,
		RoleARN:           s.settings.RoleARN,
		ImageURI:          s.settings.MonitorImageURI,
		OperationInFlight: s.isInFlight(req.ScheduleName),
	})
	if !guard.Allowed {
		return schedule.Fatal("", guard.Error()), guard.Error()
	}
	if err := s.acquire(req.ScheduleName); err != nil {
		return schedule.Fatal("", err), err
	}
	defer s.release(req.ScheduleName)

	cron := req.CronExpression
	if cron == "" {
		cron = schedule.HourlyCron
	}

	arn, err := s.monitoring.CreateMonitoringSchedule(ctx, &secondary.CreateScheduleInput{
		ScheduleName:       req.ScheduleName,
		JobDefinitionName:  schedule.JobDefinitionName(req.ScheduleName),
		EndpointName:       req.EndpointName,
		RoleARN:            s.settings.RoleARN,
		ImageURI:           s.settings.MonitorImageURI,
		GroundTruthURI:     req.GroundTruthURI,
		ConstraintsURI:     req.ConstraintsURI,
		StatisticsURI:      req.StatisticsURI,
		OutputURI:          req.OutputURI,
		ProblemType:        req.ProblemType,
		InferenceAttribute: schedule.EndpointInferenceAttr,
		CronExpression:     cron,
		MaxRuntime:         baseline.DefaultMaxRuntime,
		InstanceType:       s.settings.InstanceType,
	})
	if err != nil {
		err = fmt.Errorf("failed to create monitoring schedule %s: %w", req.ScheduleName, err)
		return schedule.Fatal("", err), err
	}
	s.log.Info().Str("schedule", req.ScheduleName).Str("arn", arn).Msg("monitoring schedule created")

	if created != nil {
		if err := created(); err != nil {
			return schedule.Fatal("", err), err
		}
	}

	state, last, err := s.wait(ctx, req.ScheduleName, schedule.CreationTerminal)
	if err != nil {
		return schedule.Fatal(state, err), err
	}

	outcome := schedule.EvaluateCreation(state, last.FailureReason)
	s.log.Info().
		Str("schedule", req.ScheduleName).
		Str("state", string(outcome.State)).
		Str("outcome", outcome.Kind.String()).
		Msg("model quality monitor schedule status")
	return outcome, nil
}

// DescribeSchedule returns the schedule, or one with State NotFound.
func (s *ScheduleServiceImpl) DescribeSchedule(ctx context.Context, name string) (*primary.Schedule, error) {
	d, err := s.monitoring.DescribeMonitoringSchedule(ctx, name)
	if isNotFound(err) {
		return &primary.Schedule{Name: name, State: schedule.StateNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to describe schedule %s: %w", name, err)
	}

	state, err := schedule.ParseState(d.Status)
	if err != nil {
		return nil, err
	}
	return &primary.Schedule{
		Name:                d.Name,
		ARN:                 d.ARN,
		State:               state,
		FailureReason:       d.FailureReason,
		EndpointName:        d.EndpointName,
		CreatedAt:           d.CreatedAt,
		ModifiedAt:          d.ModifiedAt,
		LastExecutionStatus: d.LastExecutionStatus,
		LastExecutionTime:   d.LastExecutionTime,
		LastExecutionReport: d.LastExecutionReport,
	}, nil
}

// DeleteSchedule deletes a schedule and waits until it is gone.
func (s *ScheduleServiceImpl) DeleteSchedule(ctx context.Context, name string) (schedule.Outcome, error) {
	guard := schedule.CanDeleteSchedule(schedule.DeleteContext{
		ScheduleName:      name,
		OperationInFlight: s.isInFlight(name),
	})
	if !guard.Allowed {
		return schedule.Fatal("", guard.Error()), guard.Error()
	}
	if err := s.acquire(name); err != nil {
		return schedule.Fatal("", err), err
	}
	defer s.release(name)

	d, err := s.monitoring.DescribeMonitoringSchedule(ctx, name)
	if isNotFound(err) {
		s.log.Info().Str("schedule", name).Msg("schedule already absent")
		return schedule.NotFound(), nil
	}
	if err != nil {
		err = fmt.Errorf("failed to describe schedule %s: %w", name, err)
		return schedule.Fatal("", err), err
	}

	if err := s.monitoring.DeleteMonitoringSchedule(ctx, name); err != nil {
		if isNotFound(err) {
			return schedule.NotFound(), nil
		}
		err = fmt.Errorf("failed to delete schedule %s: %w", name, err)
		return schedule.Fatal(schedule.State(d.Status), err), err
	}

	state, _, err := s.wait(ctx, name, schedule.DeletionTerminal)
	if err != nil {
		return schedule.Fatal(state, err), err
	}

	outcome := schedule.EvaluateDeletion(state)
	s.log.Info().Str("schedule", name).Str("state", string(state)).Msg("schedule deleted")
	return outcome, nil
}

// ResolveScheduleName returns override or the name recorded in the deploy hand-off.
func (s *ScheduleServiceImpl) ResolveScheduleName(ctx context.Context, deployPath, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	deploy, err := loadDeploy(ctx, s.handles, deployPath)
	if err != nil {
		return "", err
	}
	name, ok := deploy.ScheduleName()
	if !ok {
		return "", fmt.Errorf("no monitoring schedule recorded in %s (use --name)", deployPath)
	}
	return name, nil
}

// wait polls the schedule until its state is in terminal. NotFound from the
// describe call ends the wait with StateNotFound.
func (s *ScheduleServiceImpl) wait(ctx context.Context, name string, terminal poll.Set[schedule.State]) (schedule.State, *secondary.ScheduleDescription, error) {
	last := &secondary.ScheduleDescription{Name: name}
	fetch := func(ctx context.Context) (schedule.State, error) {
		d, err := s.monitoring.DescribeMonitoringSchedule(ctx, name)
		if err != nil {
			return "", err
		}
		last = d
		return schedule.ParseState(d.Status)
	}

	state, err := poll.WaitUntil(ctx, fetch, terminal,
		pollOptions(s.settings, s.log, s.metrics, "schedule", name, schedule.StateNotFound))
	if err != nil {
		return state, last, fmt.Errorf("failed waiting for schedule %s: %w", name, err)
	}
	return state, last, nil
}

func (s *ScheduleServiceImpl) isInFlight(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[name]
}

func (s *ScheduleServiceImpl) acquire(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[name] {
		return fmt.Errorf("schedule %s: %w", name, schedule.ErrOperationInFlight)
	}
	s.inFlight[name] = true
	return nil
}

func (s *ScheduleServiceImpl) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, name)
}

// Ensure ScheduleServiceImpl implements the interface
var _ primary.ScheduleService = (*ScheduleServiceImpl)(nil)
