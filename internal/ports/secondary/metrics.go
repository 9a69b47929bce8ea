package secondary

import "context"

// Metrics records operational counters for a single command run.
type Metrics interface {
	PollTick(resource, state string)
	InferenceRequest(endpoint string, err error)
	CaptureRecords(n int)
	DecodeFailure()
	GroundTruthRecords(n int)

	// Flush pushes the counters somewhere durable. Implementations without a
	// destination return nil.
	Flush(ctx context.Context) error
}
