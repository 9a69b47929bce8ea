package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/capture"
	"github.com/example/mqmon/internal/core/storage"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// CaptureServiceImpl implements the CaptureService interface.
type CaptureServiceImpl struct {
	store   secondary.ObjectStore
	handles secondary.HandleRepository
	metrics secondary.Metrics
	log     zerolog.Logger
}

// NewCaptureService creates a new CaptureService with injected dependencies.
func NewCaptureService(store secondary.ObjectStore, handles secondary.HandleRepository, metrics secondary.Metrics, log zerolog.Logger) *CaptureServiceImpl {
	return &CaptureServiceImpl{
		store:   store,
		handles: handles,
		metrics: metrics,
		log:     log,
	}
}

// ListCaptures returns the capture files whose path contains the partition.
func (s *CaptureServiceImpl) ListCaptures(ctx context.Context, req primary.ListCapturesRequest) (*primary.ListCapturesResponse, error) {
	base, files, err := s.list(ctx, req.DeployOutputPath, req.Partition)
	if err != nil {
		return nil, err
	}

	resp := &primary.ListCapturesResponse{BaseURI: base, Files: make([]primary.CaptureFile, len(files))}
	for i, uri := range files {
		resp.Files[i] = primary.CaptureFile{URI: uri, Records: -1}
		if !req.CountRecords {
			continue
		}
		content, err := s.store.Read(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read capture file %s: %w", uri, err)
		}
		resp.Files[i].Records = len(capture.SplitLines(string(content)))
	}
	return resp, nil
}

// ReadCaptures decodes every record of the partition in file order.
func (s *CaptureServiceImpl) ReadCaptures(ctx context.Context, req primary.ReadCapturesRequest) (*primary.ReadCapturesResponse, error) {
	_, files, err := s.list(ctx, req.DeployOutputPath, req.Partition)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("files", len(files)).Str("partition", req.Partition).Msg("detected capture files")

	resp := &primary.ReadCapturesResponse{Files: files, Predictions: capture.NewPredictions()}
	for _, uri := range files {
		s.log.Debug().Str("file", uri).Msg("processing capture file")
		content, err := s.store.Read(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read capture file %s: %w", uri, err)
		}

		for i, line := range capture.SplitLines(string(content)) {
			rec, err := decodeLine(line)
			if err != nil {
				s.metrics.DecodeFailure()
				if !req.SkipInvalid {
					return nil, fmt.Errorf("%s line %d: %w", uri, i+1, err)
				}
				s.log.Warn().Err(err).Str("file", uri).Int("line", i+1).Msg("skipping undecodable capture record")
				resp.Skipped++
				continue
			}
			resp.Predictions.Add(rec.RequestID, rec.Predicted)
			resp.Records++
		}
	}

	s.metrics.CaptureRecords(resp.Records)
	s.log.Info().Int("records", resp.Records).Int("skipped", resp.Skipped).Msg("captured records")
	return resp, nil
}

// list returns the capture base URI and the partition's files, sorted.
func (s *CaptureServiceImpl) list(ctx context.Context, deployPath, partition string) (string, []string, error) {
	if !capture.ValidPartition(partition) {
		return "", nil, fmt.Errorf("invalid capture partition %q: want YYYY/MM/DD/HH", partition)
	}
	deploy, err := loadDeploy(ctx, s.handles, deployPath)
	if err != nil {
		return "", nil, err
	}
	root, err := deploy.CaptureUploadPath()
	if err != nil {
		return "", nil, err
	}
	endpointName, err := deploy.EndpointName()
	if err != nil {
		return "", nil, err
	}

	// {capture_root}/{endpoint}/{YYYY}/{MM}/{DD}/{HH}/...
	base, err := storage.JoinURI(root, endpointName)
	if err != nil {
		return "", nil, fmt.Errorf("invalid capture location: %w", err)
	}
	all, err := s.store.List(ctx, base)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list captures under %s: %w", base, err)
	}
	return base, capture.FilterPartition(all, partition), nil
}

func decodeLine(line string) (capture.Record, error) {
	env, err := capture.ParseLine(line)
	if err != nil {
		return capture.Record{}, err
	}
	return capture.Decode(env)
}

// Ensure CaptureServiceImpl implements the interface
var _ primary.CaptureService = (*CaptureServiceImpl)(nil)
