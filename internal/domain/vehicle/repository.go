package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows catalog listings. Zero values mean "no filter".
type Filter struct {
	Category      Category
	MaxPriceCents int64
	MinSeats      int
	OnlyAvailable bool
}

// VehicleRepository defines persistence operations for catalog vehicles.
type VehicleRepository interface {
	// FindByID retrieves a vehicle by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// List retrieves active vehicles matching the filter with pagination.
	List(ctx context.Context, f Filter, page, limit int) ([]*Vehicle, int64, error)

	// ListActiveIDs returns the IDs of all active vehicles. Used by the
	// availability reconciliation job.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, v *Vehicle) error

	// Update persists changes to an existing vehicle with optimistic locking.
	Update(ctx context.Context, v *Vehicle) error

	// SetAvailability writes the vehicle's available flag directly. It is the
	// write half of the availability cache; used inside booking transactions
	// and by the reconciliation job.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}
