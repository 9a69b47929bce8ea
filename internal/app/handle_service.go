package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/ports/primary"
	"github.com/example/mqmon/internal/ports/secondary"
)

// ErrLedgerDisabled is returned by HandleService when no ledger is configured.
var ErrLedgerDisabled = errors.New("handle ledger is disabled (MQMON_LEDGER=off)")

// HandleServiceImpl implements the HandleService interface.
type HandleServiceImpl struct {
	ledger  secondary.HandleLedger
	handles secondary.HandleRepository
	log     zerolog.Logger
}

// NewHandleService creates a new HandleService. ledger may be nil.
func NewHandleService(ledger secondary.HandleLedger, handles secondary.HandleRepository, log zerolog.Logger) *HandleServiceImpl {
	return &HandleServiceImpl{
		ledger:  ledger,
		handles: handles,
		log:     log,
	}
}

// ListHandles returns recorded handles, newest first.
func (s *HandleServiceImpl) ListHandles(ctx context.Context, filters primary.HandleFilters) ([]*primary.Handle, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	records, err := s.ledger.List(ctx, secondary.HandleFilters{
		Source:     filters.Source,
		Role:       filters.Role,
		ActiveOnly: filters.ActiveOnly,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list handles: %w", err)
	}

	out := make([]*primary.Handle, len(records))
	for i, r := range records {
		out[i] = s.recordToHandle(r)
	}
	return out, nil
}

// RecordDeploy imports the handles of an existing deploy hand-off.
func (s *HandleServiceImpl) RecordDeploy(ctx context.Context, deployPath string) (int, error) {
	if s.ledger == nil {
		return 0, ErrLedgerDisabled
	}
	deploy, err := loadDeploy(ctx, s.handles, deployPath)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range deploy.Entries() {
		rec := &secondary.HandleRecord{Source: deployPath, Role: string(e.Role), Name: e.Name, URI: e.URI}
		if err := s.ledger.Record(ctx, rec); err != nil {
			return n, fmt.Errorf("failed to record %s handle: %w", e.Role, err)
		}
		n++
	}
	return n, nil
}

func (s *HandleServiceImpl) recordToHandle(r *secondary.HandleRecord) *primary.Handle {
	return &primary.Handle{
		ID:           r.ID,
		Source:       r.Source,
		Role:         r.Role,
		Name:         r.Name,
		URI:          r.URI,
		CreatedAt:    r.CreatedAt,
		SupersededAt: r.SupersededAt,
	}
}

// Ensure HandleServiceImpl implements the interface
var _ primary.HandleService = (*HandleServiceImpl)(nil)
