package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/mqmon/internal/ports/primary"
)

// EndpointAdapter translates CLI operations to EndpointService calls.
type EndpointAdapter struct {
	service primary.EndpointService
	out     io.Writer
}

// NewEndpointAdapter creates a new EndpointAdapter with the given service.
func NewEndpointAdapter(service primary.EndpointService, out io.Writer) *EndpointAdapter {
	return &EndpointAdapter{
		service: service,
		out:     out,
	}
}

// Wait blocks until the endpoint is in service.
func (a *EndpointAdapter) Wait(ctx context.Context, deployPath, name string) error {
	status, err := a.service.WaitEndpoint(ctx, primary.WaitEndpointRequest{
		DeployOutputPath: deployPath,
		Name:             name,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Endpoint %s is %s\n", status.Name, StateColor(string(status.State)))
	return nil
}

// Cleanup deletes every recorded resource and reports each step.
func (a *EndpointAdapter) Cleanup(ctx context.Context, deployPath string) error {
	resp, err := a.service.Cleanup(ctx, primary.CleanupRequest{DeployOutputPath: deployPath})
	if resp != nil {
		for _, step := range resp.Steps {
			if step.Deleted {
				fmt.Fprintf(a.out, "✓ Deleted %s %s\n", step.Resource, step.Name)
			} else {
				fmt.Fprintf(a.out, "  %s %s %s\n", step.Resource, step.Name, color.New(color.FgYellow).Sprint("(already absent)"))
			}
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Object store data (captures, baselines, ground truth) was left in place")
	return nil
}
