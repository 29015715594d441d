package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DriveNow-Rentals/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/booking"
	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
)

// jobTimeout bounds how long a single job run may hold on to the database.
const jobTimeout = 2 * time.Minute

// JobRunner coordinates the scheduled maintenance jobs.
type JobRunner struct {
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	service  *application.BookingService
	logger   *zap.Logger
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies.
func NewJobRunner(
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	service *application.BookingService,
	logger *zap.Logger,
) *JobRunner {
	return &JobRunner{
		bookings: bookings,
		vehicles: vehicles,
		service:  service,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// runWithRecovery wraps job execution with panic recovery.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			jr.logger.Error("job panicked",
				zap.String("job", jobName),
				zap.Any("panic", r),
			)
		}
	}()

	jr.logger.Info("starting job", zap.String("job", jobName))
	jobFunc()
	jr.logger.Info("job completed", zap.String("job", jobName))
}

// ReconcileVehicleAvailability rewrites every active vehicle's available flag
// from booking truth: a vehicle is unavailable exactly when a live booking
// overlaps the current instant. Heals any drift the flag picked up.
func (jr *JobRunner) ReconcileVehicleAvailability() {
	jr.runWithRecovery("ReconcileVehicleAvailability", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		now := jr.now()

		activeIDs, err := jr.vehicles.ListActiveIDs(ctx)
		if err != nil {
			jr.logger.Error("failed to list active vehicles", zap.Error(err))
			return
		}

		heldIDs, err := jr.bookings.VehiclesHeldAt(ctx, now)
		if err != nil {
			jr.logger.Error("failed to find held vehicles", zap.Error(err))
			return
		}

		held := make(map[uuid.UUID]struct{}, len(heldIDs))
		for _, id := range heldIDs {
			held[id] = struct{}{}
		}

		fixed := 0
		for _, id := range activeIDs {
			_, isHeld := held[id]
			if err := jr.vehicles.SetAvailability(ctx, id, !isHeld); err != nil {
				jr.logger.Error("failed to reconcile vehicle availability",
					zap.String("vehicle_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			fixed++
		}

		jr.logger.Info("availability reconciled",
			zap.Int("vehicles", fixed),
			zap.Int("held", len(heldIDs)),
		)
	})
}

// ActivateDueBookings moves confirmed bookings whose rental period has begun
// into the active state.
func (jr *JobRunner) ActivateDueBookings() {
	jr.runWithRecovery("ActivateDueBookings", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		due, err := jr.bookings.FindDueForActivation(ctx, jr.now())
		if err != nil {
			jr.logger.Error("failed to find bookings due for activation", zap.Error(err))
			return
		}

		for _, bk := range due {
			_, err := jr.service.TransitionBooking(ctx, uuid.Nil, true, bk.ID(), string(bookingDomain.StatusActive), "")
			if err != nil {
				jr.logger.Error("failed to activate booking",
					zap.String("booking_id", bk.ID().String()),
					zap.Error(err),
				)
				continue
			}
			jr.logger.Info("booking activated", zap.String("booking_id", bk.ID().String()))
		}
	})
}

// CompleteOverdueBookings completes active bookings whose rental period has
// ended, freeing their vehicles.
func (jr *JobRunner) CompleteOverdueBookings() {
	jr.runWithRecovery("CompleteOverdueBookings", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		overdue, err := jr.bookings.FindOverdueActive(ctx, jr.now())
		if err != nil {
			jr.logger.Error("failed to find overdue bookings", zap.Error(err))
			return
		}

		for _, bk := range overdue {
			_, err := jr.service.TransitionBooking(ctx, uuid.Nil, true, bk.ID(), string(bookingDomain.StatusCompleted), "")
			if err != nil {
				jr.logger.Error("failed to complete overdue booking",
					zap.String("booking_id", bk.ID().String()),
					zap.Error(err),
				)
				continue
			}
			jr.logger.Info("overdue booking completed", zap.String("booking_id", bk.ID().String()))
		}
	})
}
