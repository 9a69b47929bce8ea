package secondary

import (
	"context"
	"time"

	"github.com/example/mqmon/internal/core/handle"
)

// HandleRepository reads and writes the JSON hand-off documents.
type HandleRepository interface {
	// LoadDeploy reads a deploy document. Returns an error wrapping
	// ErrNotFound if the file does not exist.
	LoadDeploy(ctx context.Context, path string) (*handle.DeployOutput, error)

	// SaveDeploy replaces the deploy document at path.
	SaveDeploy(ctx context.Context, path string, doc *handle.DeployOutput) error

	// LoadTrain reads a training document.
	LoadTrain(ctx context.Context, path string) (*handle.TrainOutput, error)

	// SaveTest replaces the traffic document at path.
	SaveTest(ctx context.Context, path string, doc *handle.TestOutput) error
}

// HandleLedger keeps the history of every resource handle written.
// Records are never mutated; recording a role again supersedes the
// previous active record for that (source, role).
type HandleLedger interface {
	// Record appends a handle. Recording an identical active handle is a no-op.
	Record(ctx context.Context, record *HandleRecord) error

	// List returns records matching filters, newest first.
	List(ctx context.Context, filters HandleFilters) ([]*HandleRecord, error)
}

// HandleRecord represents a resource handle as stored in the ledger.
type HandleRecord struct {
	ID           int64
	Source       string // hand-off file the handle was written to
	Role         string
	Name         string
	URI          string
	CreatedAt    time.Time
	SupersededAt *time.Time
}

// Active reports whether the record has not been superseded.
func (r *HandleRecord) Active() bool { return r.SupersededAt == nil }

// HandleFilters contains filter options for querying the ledger.
type HandleFilters struct {
	Source     string
	Role       string
	ActiveOnly bool
	Limit      int
}
