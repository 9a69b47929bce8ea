package primary

import "context"

// GroundTruthService defines the primary port for ground-truth generation.
type GroundTruthService interface {
	// Generate correlates the captures of one hour partition with labels and
	// uploads the resulting batch next to earlier batches of that hour.
	Generate(ctx context.Context, req GenerateGroundTruthRequest) (*GenerateGroundTruthResponse, error)
}

// GenerateGroundTruthRequest contains parameters for generating ground truth.
type GenerateGroundTruthRequest struct {
	DeployOutputPath string
	TrainOutputPath  string
	Partition        string
	Policy           string // random, compare or truth
	PositiveRate     float64
	Seed             *uint64
	SkipInvalid      bool
	DryRun           bool
}

// GenerateGroundTruthResponse contains the result of a generation run.
type GenerateGroundTruthResponse struct {
	URI          string
	CaptureFiles int
	Records      int
	Skipped      int
	Uploaded     bool
}
