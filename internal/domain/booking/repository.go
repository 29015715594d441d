package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByUserID retrieves bookings belonging to a specific user with pagination,
	// most recent first.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination, optionally filtered by
	// status (empty status means no filter). Admin use.
	ListAll(ctx context.Context, status BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountOverlapping returns the number of bookings for the vehicle whose
	// status is in statuses and whose interval conflicts with [start, end)
	// under the inclusive-edge rule.
	CountOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, statuses []BookingStatus) (int64, error)

	// VehiclesHeldAt returns the IDs of vehicles that have at least one
	// non-terminal booking overlapping the given instant. Used by the
	// availability reconciliation job.
	VehiclesHeldAt(ctx context.Context, at time.Time) ([]uuid.UUID, error)

	// FindDueForActivation returns confirmed bookings whose start date has
	// passed.
	FindDueForActivation(ctx context.Context, now time.Time) ([]*Booking, error)

	// FindOverdueActive returns active bookings whose end date has passed.
	FindOverdueActive(ctx context.Context, now time.Time) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// TotalRevenueCents sums totalAmount over completed bookings (admin).
	TotalRevenueCents(ctx context.Context) (int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
