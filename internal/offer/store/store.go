package store

import (
	"context"
	"errors"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (memory,
// sqlite) implement this. Kept as sub-repositories in the same shape as
// our other services so a second record type slots in without churn.
type Store interface {
	Handoffs() Handoffs

	// Ping verifies the backing storage is still usable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Handoffs stores published handoff records keyed by their random
// reference. Records are write-once and single-use.
type Handoffs interface {
	// PutHandoff stores a freshly published record under its reference.
	PutHandoff(ctx context.Context, rec domain.HandoffRecord) error

	// ConsumeHandoff returns the record for reference and removes it so the
	// reference cannot be redeemed twice. Unknown references and records
	// past their expiry report ErrNotFound.
	ConsumeHandoff(ctx context.Context, reference string, now time.Time) (domain.HandoffRecord, error)

	// DeleteExpiredHandoffs removes records past their expiry (housekeeping).
	DeleteExpiredHandoffs(ctx context.Context, now time.Time) error
}
