package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/mqmon/internal/ports/primary"
)

// TrafficAdapter translates CLI operations to TrafficService calls.
type TrafficAdapter struct {
	service primary.TrafficService
	out     io.Writer
}

// NewTrafficAdapter creates a new TrafficAdapter with the given service.
func NewTrafficAdapter(service primary.TrafficService, out io.Writer) *TrafficAdapter {
	return &TrafficAdapter{
		service: service,
		out:     out,
	}
}

// Send invokes the endpoint for each test row, printing progress every
// `every` requests (0 disables progress).
func (a *TrafficAdapter) Send(ctx context.Context, req primary.SendTrafficRequest, every int) error {
	if every > 0 {
		req.OnProgress = func(sent, total int) {
			if sent%every == 0 || sent == total {
				fmt.Fprintf(a.out, "  sent %d/%d\n", sent, total)
			}
		}
	}

	resp, err := a.service.Send(ctx, req)
	if resp != nil && resp.Sent > 0 && err != nil {
		fmt.Fprintf(a.out, "Sent %d request(s) before failing; partial results saved to %s\n", resp.Sent, req.TestOutputPath)
	}
	if err != nil {
		return err
	}

	if resp.Sent == 0 {
		fmt.Fprintf(a.out, "No test rows to send to %s\n", resp.EndpointName)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Sent %d request(s) to %s (%s .. %s)\n", resp.Sent, resp.EndpointName, resp.FirstID, resp.LastID)
	fmt.Fprintf(a.out, "  Results: %s\n", req.TestOutputPath)
	return nil
}
