package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/endpoint"
	"github.com/example/mqmon/internal/core/poll"
	"github.com/example/mqmon/internal/core/schedule"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// Cleanup step resource names.
const (
	ResourceSchedule       = "schedule"
	ResourceModel          = "model"
	ResourceEndpoint       = "endpoint"
	ResourceEndpointConfig = "endpoint-config"
)

// EndpointServiceImpl implements the EndpointService interface.
type EndpointServiceImpl struct {
	endpoints secondary.EndpointPlatform
	schedules primary.ScheduleService
	handles   secondary.HandleRepository
	metrics   secondary.Metrics
	settings  Settings
	log       zerolog.Logger
}

// NewEndpointService creates a new EndpointService with injected dependencies.
func NewEndpointService(
	endpoints secondary.EndpointPlatform,
	schedules primary.ScheduleService,
	handles secondary.HandleRepository,
	metrics secondary.Metrics,
	settings Settings,
	log zerolog.Logger,
) *EndpointServiceImpl {
	return &EndpointServiceImpl{
		endpoints: endpoints,
		schedules: schedules,
		handles:   handles,
		metrics:   metrics,
		settings:  settings,
		log:       log,
	}
}

// WaitEndpoint blocks until the endpoint is in service or has failed.
func (s *EndpointServiceImpl) WaitEndpoint(ctx context.Context, req primary.WaitEndpointRequest) (*primary.EndpointStatus, error) {
	name := req.Name
	if name == "" {
		deploy, err := loadDeploy(ctx, s.handles, req.DeployOutputPath)
		if err != nil {
			return nil, err
		}
		if name, err = deploy.EndpointName(); err != nil {
			return nil, err
		}
	}

	status := &primary.EndpointStatus{Name: name}
	fetch := func(ctx context.Context) (endpoint.State, error) {
		d, err := s.endpoints.DescribeEndpoint(ctx, name)
		if err != nil {
			return "", err
		}
		status.FailureReason = d.FailureReason
		return endpoint.Parse(d.Status), nil
	}

	state, err := poll.WaitUntil(ctx, fetch, endpoint.ReadyTerminal,
		pollOptions(s.settings, s.log, s.metrics, "endpoint", name, endpoint.StateNotFound))
	status.State = state
	if err != nil {
		return status, fmt.Errorf("failed waiting for endpoint %s: %w", name, err)
	}

	if err := endpoint.EvaluateReadiness(name, state, status.FailureReason); err != nil {
		return status, err
	}
	s.log.Info().Str("endpoint", name).Msg("endpoint in service")
	return status, nil
}

// Cleanup removes the schedule, models, endpoint and endpoint config named
// in the deploy hand-off. Every step treats an absent resource as done.
func (s *EndpointServiceImpl) Cleanup(ctx context.Context, req primary.CleanupRequest) (*primary.CleanupResponse, error) {
	deploy, err := loadDeploy(ctx, s.handles, req.DeployOutputPath)
	if err != nil {
		return nil, err
	}
	resp := &primary.CleanupResponse{}

	if name, ok := deploy.ScheduleName(); ok {
		outcome, err := s.schedules.DeleteSchedule(ctx, name)
		if err != nil {
			return resp, err
		}
		resp.Steps = append(resp.Steps, primary.CleanupStep{
			Resource: ResourceSchedule,
			Name:     name,
			Deleted:  outcome.Kind == schedule.OutcomeOK,
		})
	}

	endpointName, err := deploy.EndpointName()
	if err != nil {
		// Nothing was deployed; the schedule was all there was to remove.
		s.log.Info().Msg("no endpoint recorded, skipping endpoint cleanup")
		return resp, nil
	}
	configName := deploy.EndpointConfigName()

	models, err := s.modelNames(ctx, deploy.ModelInfo, configName)
	if err != nil {
		return resp, err
	}
	for _, m := range models {
		step, err := s.deleteStep(ctx, ResourceModel, m, s.endpoints.DeleteModel)
		if err != nil {
			return resp, err
		}
		resp.Steps = append(resp.Steps, step)
	}

	step, err := s.deleteStep(ctx, ResourceEndpoint, endpointName, s.endpoints.DeleteEndpoint)
	if err != nil {
		return resp, err
	}
	resp.Steps = append(resp.Steps, step)

	step, err = s.deleteStep(ctx, ResourceEndpointConfig, configName, s.endpoints.DeleteEndpointConfig)
	if err != nil {
		return resp, err
	}
	resp.Steps = append(resp.Steps, step)

	return resp, nil
}

// modelNames prefers the model recorded at deploy time and falls back to the
// models served by the endpoint config.
func (s *EndpointServiceImpl) modelNames(ctx context.Context, info map[string]any, configName string) ([]string, error) {
	if name, ok := info["name"].(string); ok && name != "" {
		return []string{name}, nil
	}
	models, err := s.endpoints.EndpointModels(ctx, configName)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list models of %s: %w", configName, err)
	}
	return models, nil
}

func (s *EndpointServiceImpl) deleteStep(ctx context.Context, resource, name string, del func(context.Context, string) error) (primary.CleanupStep, error) {
	step := primary.CleanupStep{Resource: resource, Name: name}
	err := del(ctx, name)
	switch {
	case isNotFound(err):
		s.log.Info().Str("resource", resource).Str("name", name).Msg("already absent")
	case err != nil:
		return step, fmt.Errorf("failed to delete %s %s: %w", resource, name, err)
	default:
		step.Deleted = true
		s.log.Info().Str("resource", resource).Str("name", name).Msg("deleted")
	}
	return step, nil
}

// Ensure EndpointServiceImpl implements the interface
var _ primary.EndpointService = (*EndpointServiceImpl)(nil)
