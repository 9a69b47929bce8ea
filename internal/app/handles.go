package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/ports/secondary"
)

// loadDeploy reads the deploy hand-off.
func loadDeploy(ctx context.Context, repo secondary.HandleRepository, path string) (*handle.DeployOutput, error) {
	doc, err := repo.LoadDeploy(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load deploy output %s: %w", path, err)
	}
	return doc, nil
}

// loadTrain reads the training hand-off.
func loadTrain(ctx context.Context, repo secondary.HandleRepository, path string) (*handle.TrainOutput, error) {
	doc, err := repo.LoadTrain(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load train output %s: %w", path, err)
	}
	return doc, nil
}

// recordHandles appends the handles of doc to the ledger. The ledger is a
// history aid, so failures are logged and not returned.
func recordHandles(ctx context.Context, ledger secondary.HandleLedger, log zerolog.Logger, source string, doc *handle.DeployOutput) int {
	if ledger == nil {
		return 0
	}
	n := 0
	for _, e := range doc.Entries() {
		rec := &secondary.HandleRecord{Source: source, Role: string(e.Role), Name: e.Name, URI: e.URI}
		if err := ledger.Record(ctx, rec); err != nil {
			log.Warn().Err(err).Str("role", rec.Role).Msg("failed to record handle")
			continue
		}
		n++
	}
	return n
}
