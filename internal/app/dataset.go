package app

import (
	"context"
	"fmt"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/core/storage"
	"github.com/example/mqmon/internal/core/traffic"
	"github.com/example/mqmon/internal/ports/secondary"
)

// TestDatasetFile is the held-out table under the training test prefix.
const TestDatasetFile = "test.csv"

// loadTestTable reads {train.test}/test.csv: no header, label in column 0.
func loadTestTable(ctx context.Context, store secondary.ObjectStore, train *handle.TrainOutput) (*traffic.Table, error) {
	prefix, err := train.TestDataURI()
	if err != nil {
		return nil, err
	}
	uri, err := storage.JoinURI(prefix, TestDatasetFile)
	if err != nil {
		return nil, fmt.Errorf("invalid test dataset location: %w", err)
	}
	data, err := store.Read(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to read test dataset %s: %w", uri, err)
	}
	table, err := traffic.ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse test dataset %s: %w", uri, err)
	}
	return table, nil
}
