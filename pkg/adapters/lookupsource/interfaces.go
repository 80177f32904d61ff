package lookupsource

import (
	"context"

	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// LookupSource finds repair rows by PCB serial number.
// Each implementation owns its connection or file handles and must be closed when done.
type LookupSource interface {
	// Name identifies the source in logs and health output.
	Name() string

	// FindBySerial returns the row whose serial column equals serial exactly.
	// serial is already trimmed and non-empty. A healthy source without a match
	// returns *apperrors.NotFoundError; any infrastructure failure returns
	// *apperrors.SourceError and never a not-found.
	FindBySerial(ctx context.Context, serial string) (models.SourceRecord, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the source.
	Close() error
}

// StatsSource is implemented by sources that can aggregate their rows for
// GET /api/stats. It is optional; callers type-assert for it.
type StatsSource interface {
	Stats(ctx context.Context) (models.Stats, error)
}
