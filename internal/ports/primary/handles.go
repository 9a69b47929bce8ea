package primary

import (
	"context"
	"time"
)

// HandleService defines the primary port for resource handle history.
type HandleService interface {
	// ListHandles returns recorded handles, newest first.
	ListHandles(ctx context.Context, filters HandleFilters) ([]*Handle, error)

	// RecordDeploy appends the handles of a deploy hand-off to the history.
	RecordDeploy(ctx context.Context, deployPath string) (int, error)
}

// HandleFilters contains filter options for listing handles.
type HandleFilters struct {
	Source     string
	Role       string
	ActiveOnly bool
	Limit      int
}

// Handle represents a recorded resource handle at the port boundary.
type Handle struct {
	ID           int64
	Source       string
	Role         string
	Name         string
	URI          string
	CreatedAt    time.Time
	SupersededAt *time.Time
}
