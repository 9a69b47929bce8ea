package primary

import (
	"context"

	"github.com/example/mqmon/internal/core/capture"
)

// CaptureService defines the primary port for reading captured inferences.
type CaptureService interface {
	// ListCaptures returns the capture files of one hour partition.
	ListCaptures(ctx context.Context, req ListCapturesRequest) (*ListCapturesResponse, error)

	// ReadCaptures decodes every record of one hour partition.
	ReadCaptures(ctx context.Context, req ReadCapturesRequest) (*ReadCapturesResponse, error)
}

// ListCapturesRequest contains parameters for listing capture files.
type ListCapturesRequest struct {
	DeployOutputPath string
	Partition        string // YYYY/MM/DD/HH
	CountRecords     bool
}

// CaptureFile is one listed capture object.
type CaptureFile struct {
	URI     string
	Records int // -1 when not counted
}

// ListCapturesResponse contains the capture files found.
type ListCapturesResponse struct {
	BaseURI string
	Files   []CaptureFile
}

// ReadCapturesRequest contains parameters for reading captures.
type ReadCapturesRequest struct {
	DeployOutputPath string
	Partition        string
	// SkipInvalid logs and skips undecodable lines instead of aborting.
	SkipInvalid bool
}

// ReadCapturesResponse contains the decoded predictions, keyed by request id
// in the order first seen.
type ReadCapturesResponse struct {
	Files       []string
	Records     int
	Skipped     int
	Predictions *capture.Predictions
}
