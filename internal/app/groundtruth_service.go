package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/groundtruth"
	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// ContentTypeJSONLines is the content type of uploaded ground-truth batches.
const ContentTypeJSONLines = "application/jsonlines"

// GroundTruthServiceImpl implements the GroundTruthService interface.
type GroundTruthServiceImpl struct {
	captures primary.CaptureService
	store    secondary.ObjectStore
	handles  secondary.HandleRepository
	metrics  secondary.Metrics
	settings Settings
	log      zerolog.Logger

	newSuffix func() string
	now       func() time.Time
}

// NewGroundTruthService creates a new GroundTruthService with injected dependencies.
func NewGroundTruthService(
	captures primary.CaptureService,
	store secondary.ObjectStore,
	handles secondary.HandleRepository,
	metrics secondary.Metrics,
	settings Settings,
	log zerolog.Logger,
) *GroundTruthServiceImpl {
	return &GroundTruthServiceImpl{
		captures:  captures,
		store:     store,
		handles:   handles,
		metrics:   metrics,
		settings:  settings,
		log:       log,
		newSuffix: batchSuffix,
		now:       time.Now,
	}
}

// batchSuffix returns a random 32-character hex string.
func batchSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Generate labels the captures of one partition and uploads them as a new batch.
func (s *GroundTruthServiceImpl) Generate(ctx context.Context, req primary.GenerateGroundTruthRequest) (*primary.GenerateGroundTruthResponse, error) {
	if req.PositiveRate < 0 || req.PositiveRate > 1 {
		return nil, fmt.Errorf("positive rate %v out of range [0, 1]", req.PositiveRate)
	}

	deploy, err := loadDeploy(ctx, s.handles, req.DeployOutputPath)
	if err != nil {
		return nil, err
	}
	gtURI, err := deploy.GroundTruthURI()
	if err != nil {
		return nil, err
	}

	seed := uint64(s.now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	policy, err := groundtruth.ParsePolicy(req.Policy, rand.New(rand.NewPCG(seed, seed>>1|1)), req.PositiveRate)
	if err != nil {
		return nil, err
	}

	var labels groundtruth.LabelSource
	if _, random := policy.(*groundtruth.RandomPolicy); !random {
		train, err := loadTrain(ctx, s.handles, req.TrainOutputPath)
		if err != nil {
			return nil, err
		}
		table, err := loadTestTable(ctx, s.store, train)
		if err != nil {
			return nil, err
		}
		s.log.Info().Int("rows", table.Len()).Msg("loaded test dataset")
		labels = table
	}

	captured, err := s.captures.ReadCaptures(ctx, primary.ReadCapturesRequest{
		DeployOutputPath: req.DeployOutputPath,
		Partition:        req.Partition,
		SkipInvalid:      req.SkipInvalid,
	})
	if err != nil {
		return nil, err
	}

	records, err := groundtruth.Correlate(s.settings.InferenceIDPrefix, captured.Predictions, labels, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate labels: %w", err)
	}

	resp := &primary.GenerateGroundTruthResponse{
		URI:          groundtruth.ObjectKey(gtURI, req.Partition, s.newSuffix()),
		CaptureFiles: len(captured.Files),
		Records:      len(records),
		Skipped:      captured.Skipped,
	}
	if len(records) == 0 {
		s.log.Warn().Str("partition", req.Partition).Msg("no captured records, nothing to upload")
		return resp, nil
	}
	if req.DryRun {
		s.log.Info().Str("uri", resp.URI).Int("records", resp.Records).Msg("dry run, not uploading")
		return resp, nil
	}

	data, err := groundtruth.EncodeJSONL(records)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, resp.URI, data, ContentTypeJSONLines); err != nil {
		return nil, fmt.Errorf("failed to upload ground truth to %s: %w", resp.URI, err)
	}
	resp.Uploaded = true
	s.metrics.GroundTruthRecords(len(records))
	s.log.Info().Str("uri", resp.URI).Int("records", resp.Records).Msg("uploaded ground truth")
	return resp, nil
}

// Ensure GroundTruthServiceImpl implements the interface
var _ primary.GroundTruthService = (*GroundTruthServiceImpl)(nil)
