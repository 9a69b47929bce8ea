package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/capture"
	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/core/traffic"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// ContentTypeCSV is used for both request and response bodies; the capture
// reader relies on CSV output.
const ContentTypeCSV = "text/csv"

// TrafficServiceImpl implements the TrafficService interface.
type TrafficServiceImpl struct {
	invoker  secondary.InferenceInvoker
	store    secondary.ObjectStore
	handles  secondary.HandleRepository
	metrics  secondary.Metrics
	settings Settings
	log      zerolog.Logger
}

// NewTrafficService creates a new TrafficService with injected dependencies.
func NewTrafficService(
	invoker secondary.InferenceInvoker,
	store secondary.ObjectStore,
	handles secondary.HandleRepository,
	metrics secondary.Metrics,
	settings Settings,
	log zerolog.Logger,
) *TrafficServiceImpl {
	return &TrafficServiceImpl{
		invoker:  invoker,
		store:    store,
		handles:  handles,
		metrics:  metrics,
		settings: settings,
		log:      log,
	}
}

// Send invokes the endpoint once per test row in table order.
func (s *TrafficServiceImpl) Send(ctx context.Context, req primary.SendTrafficRequest) (*primary.SendTrafficResponse, error) {
	deploy, err := loadDeploy(ctx, s.handles, req.DeployOutputPath)
	if err != nil {
		return nil, err
	}
	endpointName, err := deploy.EndpointName()
	if err != nil {
		return nil, err
	}
	train, err := loadTrain(ctx, s.handles, req.TrainOutputPath)
	if err != nil {
		return nil, err
	}
	table, err := loadTestTable(ctx, s.store, train)
	if err != nil {
		return nil, err
	}

	rows := table.Rows
	if req.Limit > 0 && req.Limit < len(rows) {
		rows = rows[:req.Limit]
	}
	requests := traffic.Assign(s.settings.InferenceIDPrefix, rows)
	s.log.Info().Str("endpoint", endpointName).Int("requests", len(requests)).Msg("sending traffic")

	resp := &primary.SendTrafficResponse{EndpointName: endpointName}
	out := &handle.TestOutput{Inferences: make([]map[string]handle.Inference, 0, len(requests))}

	var sendErr error
	for _, r := range requests {
		result, err := s.invoke(ctx, endpointName, r)
		if err != nil {
			sendErr = err
			break
		}
		out.Add(r.ID, handle.Inference{Input: r.Input, Result: result})
		if resp.FirstID == "" {
			resp.FirstID = r.ID
		}
		resp.LastID = r.ID
		resp.Sent++
		if req.OnProgress != nil {
			req.OnProgress(resp.Sent, len(requests))
		}
	}

	// Whatever was sent is captured remotely, so it is written even on failure.
	if err := s.handles.SaveTest(ctx, req.TestOutputPath, out); err != nil {
		return resp, errors.Join(sendErr, fmt.Errorf("failed to save test output: %w", err))
	}
	if sendErr != nil {
		return resp, sendErr
	}
	return resp, nil
}

func (s *TrafficServiceImpl) invoke(ctx context.Context, endpointName string, r traffic.Request) ([]string, error) {
	body, err := s.invoker.Invoke(ctx, &secondary.InvokeRequest{
		EndpointName: endpointName,
		InferenceID:  r.ID,
		ContentType:  ContentTypeCSV,
		Accept:       ContentTypeCSV,
		Body:         capture.EncodeFloats(r.Input),
	})
	s.metrics.InferenceRequest(endpointName, err)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s for %s: %w", endpointName, r.ID, err)
	}
	result, err := capture.DecodeCSV(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response for %s: %w", r.ID, err)
	}
	return result, nil
}

// Ensure TrafficServiceImpl implements the interface
var _ primary.TrafficService = (*TrafficServiceImpl)(nil)
