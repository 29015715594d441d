package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/booking"
	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
	"github.com/DriveNow-Rentals/service-booking/pkg/events"
	"github.com/DriveNow-Rentals/service-booking/pkg/kafka"
)

// TxManager runs a function inside a single storage transaction so the
// booking write and the vehicle flag write commit or roll back together.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes CloudEvents. Satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
// Timestamps cross the boundary as ISO-8601 UTC.
type CreateBookingRequest struct {
	VehicleID       uuid.UUID `json:"vehicle_id" binding:"required"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	PickupLocation  string    `json:"pickup_location" binding:"required"`
	DropoffLocation string    `json:"dropoff_location" binding:"required"`
	SpecialRequests string    `json:"special_requests"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	VehicleID        uuid.UUID  `json:"vehicle_id"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"payment_status"`
	PricePerDayCents int64      `json:"price_per_day_cents"`
	TotalDays        int        `json:"total_days"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	Currency         string     `json:"currency"`
	PickupLocation   string     `json:"pickup_location"`
	DropoffLocation  string     `json:"dropoff_location"`
	SpecialRequests  string     `json:"special_requests,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CancelReason     string     `json:"cancel_reason,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BookingService owns the booking lifecycle: admission, state transitions and
// the vehicle availability flag they imply.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	pricing  bookingDomain.PricingStrategy
	tx       TxManager
	producer EventPublisher
	logger   *zap.Logger
	now      func() time.Time

	// vehicleLocks serializes the check-then-write sequence per vehicle so
	// two concurrent creations for the same vehicle cannot both pass the
	// availability check before either write commits.
	vehicleLocks sync.Map
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	pricing bookingDomain.PricingStrategy,
	tx TxManager,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		vehicles: vehicles,
		pricing:  pricing,
		tx:       tx,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *BookingService) lockVehicle(vehicleID uuid.UUID) func() {
	v, _ := s.vehicleLocks.LoadOrStore(vehicleID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateBooking admits a new rental request for the given user. On success
// the booking is persisted as pending and the vehicle is flagged unavailable
// in the same transaction.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, domain.NewValidationError("end date must be after start date")
	}

	unlock := s.lockVehicle(req.VehicleID)
	defer unlock()

	v, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !v.Active() {
		return nil, domain.NewNotFoundError("vehicle", req.VehicleID.String())
	}
	if !v.Available() {
		return nil, domain.NewConflictError("vehicle is not available for booking")
	}

	conflicts, err := s.bookings.CountOverlapping(ctx, req.VehicleID, req.StartDate, req.EndDate, conflictStatuses)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, domain.NewConflictError("vehicle is already booked for these dates")
	}

	bk, err := bookingDomain.NewBooking(
		userID,
		v.ID(),
		req.StartDate,
		req.EndDate,
		v.PricePerDayCents(),
		s.pricing,
		req.PickupLocation,
		req.DropoffLocation,
		req.SpecialRequests,
	)
	if err != nil {
		return nil, err
	}

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.bookings.Save(ctx, bk); err != nil {
			return err
		}
		return s.vehicles.SetAvailability(ctx, v.ID(), false)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:        bk.ID(),
		UserID:           bk.UserID(),
		VehicleID:        bk.VehicleID(),
		StartDate:        bk.StartDate(),
		EndDate:          bk.EndDate(),
		TotalDays:        bk.TotalDays(),
		TotalAmountCents: bk.TotalAmountCents(),
		Currency:         bk.Currency(),
		OccurredAt:       s.now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// TransitionBooking moves a booking to the requested status, enforcing the
// transition table and re-deriving vehicle availability from the new status.
func (s *BookingService) TransitionBooking(
	ctx context.Context,
	actorID uuid.UUID,
	isAdmin bool,
	bookingID uuid.UUID,
	requestedStatus, notes string,
) (*BookingDTO, error) {
	if !isAdmin {
		return nil, domain.NewForbiddenError("only administrators may change booking status")
	}

	to, err := bookingDomain.ParseBookingStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	bk, err := s.findOwned(ctx, actorID, isAdmin, bookingID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockVehicle(bk.VehicleID())
	defer unlock()

	from := bk.Status()
	if err := bk.TransitionTo(to, notes); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.applyTransition(ctx, bk, to); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		UserID:     bk.UserID(),
		VehicleID:  bk.VehicleID(),
		FromStatus: string(from),
		ToStatus:   string(to),
		OccurredAt: s.now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking and frees the vehicle. Customers may only
// cancel their own bookings and only up to the cancellation notice window;
// admins may cancel any non-terminal booking at any time.
func (s *BookingService) CancelBooking(
	ctx context.Context,
	actorID uuid.UUID,
	isAdmin bool,
	bookingID uuid.UUID,
	reason string,
) (*BookingDTO, error) {
	bk, err := s.findOwned(ctx, actorID, isAdmin, bookingID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockVehicle(bk.VehicleID())
	defer unlock()

	if err := bk.Cancel(reason, s.now(), isAdmin); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.applyTransition(ctx, bk, bookingDomain.StatusCancelled); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:   bk.ID(),
		UserID:      bk.UserID(),
		VehicleID:   bk.VehicleID(),
		CancelledBy: actorID,
		Reason:      reason,
		OccurredAt:  s.now(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// applyTransition persists the booking's new status and the vehicle flag it
// implies as one transaction: cancelled/completed free the vehicle, confirmed
// keeps it held, other transitions leave the flag alone.
func (s *BookingService) applyTransition(ctx context.Context, bk *bookingDomain.Booking, to bookingDomain.BookingStatus) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		if err := s.bookings.Update(ctx, bk); err != nil {
			return err
		}
		switch {
		case to.ReleasesVehicle():
			return s.vehicles.SetAvailability(ctx, bk.VehicleID(), true)
		case to.HoldsVehicle():
			return s.vehicles.SetAvailability(ctx, bk.VehicleID(), false)
		default:
			return nil
		}
	})
}

// HandlePaymentCompleted confirms a pending booking after its payment
// settles. Called by the payment event consumer. A payment for a booking that
// is no longer pending (cancelled before the event arrived, or a duplicate
// delivery) is rejected with InvalidTransition and leaves both the booking
// and the vehicle flag untouched.
func (s *BookingService) HandlePaymentCompleted(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	unlock := s.lockVehicle(bk.VehicleID())
	defer unlock()

	from := bk.Status()
	if err := bk.TransitionTo(bookingDomain.StatusConfirmed, ""); err != nil {
		return err
	}
	bk.MarkPaid()
	bk.IncrementVersion()

	if err := s.applyTransition(ctx, bk, bookingDomain.StatusConfirmed); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID:  bk.ID(),
		UserID:     bk.UserID(),
		VehicleID:  bk.VehicleID(),
		FromStatus: string(from),
		ToStatus:   string(bk.Status()),
		OccurredAt: s.now(),
	})
	return nil
}

// HandlePaymentRefunded records a refund on the booking. The lifecycle state
// is not touched; cancellation is a separate, explicit operation.
func (s *BookingService) HandlePaymentRefunded(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	bk.MarkRefunded()
	bk.IncrementVersion()
	return s.bookings.Update(ctx, bk)
}

// GetBooking retrieves a single booking, scoped to the actor for non-admins.
func (s *BookingService) GetBooking(ctx context.Context, actorID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.findOwned(ctx, actorID, isAdmin, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings for a specific user.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds aggregate booking statistics for reporting. It is a
// derived read-only view computed on demand, never cached state.
type BookingStatsDTO struct {
	TotalBookings     int64            `json:"total_bookings"`
	ByStatus          map[string]int64 `json:"by_status"`
	TotalRevenueCents int64            `json:"total_revenue_cents"`
}

// ListAllBookings returns a paginated list of all bookings, optionally
// filtered by status (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, statusFilter string, page, limit int) ([]BookingDTO, int64, error) {
	var status bookingDomain.BookingStatus
	if statusFilter != "" {
		parsed, err := bookingDomain.ParseBookingStatus(statusFilter)
		if err != nil {
			return nil, 0, err
		}
		status = parsed
	}

	bookings, total, err := s.bookings.ListAll(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	revenue, err := s.bookings.TotalRevenueCents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings:     total,
		ByStatus:          counts,
		TotalRevenueCents: revenue,
	}, nil
}

// --- Helpers ---

// findOwned fetches a booking and enforces ownership for non-admin actors.
// A foreign booking is reported as not found, not as forbidden, so the
// endpoint does not leak booking existence.
func (s *BookingService) findOwned(ctx context.Context, actorID uuid.UUID, isAdmin bool, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !bk.IsOwnedBy(actorID) {
		return nil, domain.NewNotFoundError("booking", bookingID.String())
	}
	return bk, nil
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               bk.ID(),
		UserID:           bk.UserID(),
		VehicleID:        bk.VehicleID(),
		StartDate:        bk.StartDate(),
		EndDate:          bk.EndDate(),
		Status:           string(bk.Status()),
		PaymentStatus:    string(bk.PaymentStatus()),
		PricePerDayCents: bk.PricePerDayCents(),
		TotalDays:        bk.TotalDays(),
		TotalAmountCents: bk.TotalAmountCents(),
		Currency:         bk.Currency(),
		PickupLocation:   bk.PickupLocation(),
		DropoffLocation:  bk.DropoffLocation(),
		SpecialRequests:  bk.SpecialRequests(),
		Notes:            bk.Notes(),
		CancelReason:     bk.CancelReason(),
		CancelledAt:      bk.CancelledAt(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}
