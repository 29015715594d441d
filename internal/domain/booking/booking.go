package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// CancellationNotice is the minimum time before the rental start at which a
// customer may still cancel. Admins are not bound by it.
const CancellationNotice = 24 * time.Hour

// Booking is the aggregate root for the booking domain. It references the
// renting user and the vehicle by ID only; it owns neither.
type Booking struct {
	id        uuid.UUID
	userID    uuid.UUID
	vehicleID uuid.UUID

	// Half-open rental interval [startDate, endDate).
	startDate time.Time
	endDate   time.Time

	status        BookingStatus
	paymentStatus PaymentStatus

	// pricePerDayCents is snapshotted from the vehicle at creation time and
	// never changes afterwards, so historical bookings are insulated from
	// later price changes.
	pricePerDayCents int64
	totalDays        int
	totalAmountCents int64
	currency         string

	pickupLocation  string
	dropoffLocation string
	specialRequests string
	notes           string
	cancelReason    string

	cancelledAt *time.Time
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewBooking creates a pending booking for [start, end), deriving totalDays
// and totalAmountCents through the given pricing strategy.
func NewBooking(
	userID, vehicleID uuid.UUID,
	start, end time.Time,
	pricePerDayCents int64,
	pricing PricingStrategy,
	pickupLocation, dropoffLocation, specialRequests string,
) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if !end.After(start) {
		return nil, domain.NewValidationError("end date must be after start date")
	}
	if pickupLocation == "" {
		return nil, domain.NewValidationError("pickup location is required")
	}
	if dropoffLocation == "" {
		return nil, domain.NewValidationError("dropoff location is required")
	}
	if len(specialRequests) > 500 {
		return nil, domain.NewValidationError("special requests cannot be more than 500 characters")
	}

	quote, err := pricing.Quote(start, end, pricePerDayCents)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:               uuid.New(),
		userID:           userID,
		vehicleID:        vehicleID,
		startDate:        start.UTC(),
		endDate:          end.UTC(),
		status:           StatusPending,
		paymentStatus:    PaymentPending,
		pricePerDayCents: pricePerDayCents,
		totalDays:        quote.TotalDays,
		totalAmountCents: quote.TotalAmountCents,
		currency:         "USD",
		pickupLocation:   pickupLocation,
		dropoffLocation:  dropoffLocation,
		specialRequests:  specialRequests,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, userID, vehicleID uuid.UUID,
	startDate, endDate time.Time,
	status BookingStatus,
	paymentStatus PaymentStatus,
	pricePerDayCents int64,
	totalDays int,
	totalAmountCents int64,
	currency string,
	pickupLocation, dropoffLocation, specialRequests, notes, cancelReason string,
	cancelledAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		userID:           userID,
		vehicleID:        vehicleID,
		startDate:        startDate,
		endDate:          endDate,
		status:           status,
		paymentStatus:    paymentStatus,
		pricePerDayCents: pricePerDayCents,
		totalDays:        totalDays,
		totalAmountCents: totalAmountCents,
		currency:         currency,
		pickupLocation:   pickupLocation,
		dropoffLocation:  dropoffLocation,
		specialRequests:  specialRequests,
		notes:            notes,
		cancelReason:     cancelReason,
		cancelledAt:      cancelledAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// UserID returns the renting user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// VehicleID returns the booked vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// StartDate returns the inclusive start of the rental interval.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the exclusive end of the rental interval.
func (b *Booking) EndDate() time.Time { return b.endDate }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// PaymentStatus returns the current payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PricePerDayCents returns the day rate snapshotted at creation.
func (b *Booking) PricePerDayCents() int64 { return b.pricePerDayCents }

// TotalDays returns the derived number of billable days.
func (b *Booking) TotalDays() int { return b.totalDays }

// TotalAmountCents returns the derived total price.
func (b *Booking) TotalAmountCents() int64 { return b.totalAmountCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PickupLocation returns where the vehicle is collected.
func (b *Booking) PickupLocation() string { return b.pickupLocation }

// DropoffLocation returns where the vehicle is returned.
func (b *Booking) DropoffLocation() string { return b.dropoffLocation }

// SpecialRequests returns the customer's free-text requests.
func (b *Booking) SpecialRequests() string { return b.specialRequests }

// Notes returns the administrative notes attached to the booking.
func (b *Booking) Notes() string { return b.notes }

// CancelReason returns the cancellation reason, if any.
func (b *Booking) CancelReason() string { return b.cancelReason }

// CancelledAt returns the time the booking was cancelled, or nil.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsOwnedBy reports whether the booking belongs to the given user.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// TransitionTo moves the booking to the requested status, enforcing the
// transition table. Optional notes are persisted alongside the new status.
func (b *Booking) TransitionTo(to BookingStatus, notes string) error {
	if !to.IsValid() {
		return domain.NewInvalidStatusError(string(to))
	}
	if !b.status.CanTransitionTo(to) {
		return domain.NewInvalidTransitionError(string(b.status), string(to))
	}

	now := time.Now().UTC()
	b.status = to
	if to == StatusCancelled && b.cancelledAt == nil {
		b.cancelledAt = &now
	}
	if notes != "" {
		b.notes = notes
	}
	b.updatedAt = now
	return nil
}

// Cancel cancels the booking. Customers are bound by the cancellation notice
// window; admins may cancel at any time before a terminal state.
func (b *Booking) Cancel(reason string, now time.Time, isAdmin bool) error {
	if b.status.IsTerminal() {
		return domain.NewInvalidTransitionError(string(b.status), string(StatusCancelled))
	}
	if !isAdmin && b.startDate.Sub(now) < CancellationNotice {
		return domain.NewTooLateToCancelError()
	}

	ts := now.UTC()
	b.status = StatusCancelled
	b.cancelReason = reason
	b.cancelledAt = &ts
	b.updatedAt = ts
	return nil
}

// MarkPaid records a completed payment for the booking.
func (b *Booking) MarkPaid() {
	b.paymentStatus = PaymentPaid
	b.updatedAt = time.Now().UTC()
}

// MarkRefunded records a refunded payment for the booking.
func (b *Booking) MarkRefunded() {
	b.paymentStatus = PaymentRefunded
	b.updatedAt = time.Now().UTC()
}

// Overlaps reports whether the booking's interval conflicts with [start, end)
// under the inclusive-edge rule: touching boundaries count as a conflict.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return !b.startDate.After(end) && !b.endDate.Before(start)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
