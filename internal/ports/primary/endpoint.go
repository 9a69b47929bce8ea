package primary

import (
	"context"

	"github.com/example/mqmon/internal/core/endpoint"
)

// EndpointService defines the primary port for endpoint operations.
type EndpointService interface {
	// WaitEndpoint blocks until the endpoint reaches a terminal state and
	// returns an error unless it is in service.
	WaitEndpoint(ctx context.Context, req WaitEndpointRequest) (*EndpointStatus, error)

	// Cleanup removes the schedule, model, endpoint and endpoint config named
	// in the deploy hand-off. Object store data is left untouched.
	Cleanup(ctx context.Context, req CleanupRequest) (*CleanupResponse, error)
}

// WaitEndpointRequest contains parameters for waiting on an endpoint.
type WaitEndpointRequest struct {
	DeployOutputPath string
	Name             string // overrides the hand-off
}

// EndpointStatus is the final observed endpoint state.
type EndpointStatus struct {
	Name          string
	State         endpoint.State
	FailureReason string
}

// CleanupRequest contains parameters for cleanup.
type CleanupRequest struct {
	DeployOutputPath string
}

// CleanupStep records what happened to one resource.
type CleanupStep struct {
	Resource string
	Name     string
	Deleted  bool // false when it was already absent
}

// CleanupResponse lists the steps taken in order.
type CleanupResponse struct {
	Steps []CleanupStep
}
