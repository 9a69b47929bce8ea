package primary

import "context"

// TrafficService defines the primary port for sending test traffic.
type TrafficService interface {
	// Send invokes the endpoint once per test row, tagging row i with
	// prefix+(i+1), and writes the traffic hand-off.
	Send(ctx context.Context, req SendTrafficRequest) (*SendTrafficResponse, error)
}

// SendTrafficRequest contains parameters for sending traffic.
type SendTrafficRequest struct {
	DeployOutputPath string
	TrainOutputPath  string
	TestOutputPath   string
	Limit            int // 0 sends every row
	// OnProgress is called after each request.
	OnProgress func(sent, total int)
}

// SendTrafficResponse contains the result of sending traffic.
type SendTrafficResponse struct {
	EndpointName string
	Sent         int
	FirstID      string
	LastID       string
}
