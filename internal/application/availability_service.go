package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/booking"
	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// conflictStatuses are the booking statuses that participate in the overlap
// check. Pending bookings are provisional and deliberately excluded.
var conflictStatuses = []bookingDomain.BookingStatus{
	bookingDomain.StatusConfirmed,
	bookingDomain.StatusActive,
}

// AvailabilityResult reports whether a vehicle can be booked for an interval,
// with the number of conflicting bookings for diagnostics.
type AvailabilityResult struct {
	Available bool `json:"available"`
	Conflicts int  `json:"conflicts"`
}

// AvailabilityService answers whether a vehicle is free for a requested
// rental interval. It is read-only and safe to call concurrently.
type AvailabilityService struct {
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		bookings: bookings,
		vehicles: vehicles,
		logger:   logger,
	}
}

// Check determines availability of the vehicle for [start, end).
//
// A booking [s, e) conflicts under the inclusive-edge rule: s <= end AND
// e >= start, so touching boundaries count as conflicts. The vehicle must
// also carry available=true; the flag and the booking set are checked
// independently as a guard against drift between the two.
func (s *AvailabilityService) Check(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (*AvailabilityResult, error) {
	if !end.After(start) {
		return nil, domain.NewValidationError("end date must be after start date")
	}

	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if !v.Active() {
		return nil, domain.NewNotFoundError("vehicle", vehicleID.String())
	}

	conflicts, err := s.bookings.CountOverlapping(ctx, vehicleID, start, end, conflictStatuses)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResult{
		Available: conflicts == 0 && v.Available(),
		Conflicts: int(conflicts),
	}, nil
}
