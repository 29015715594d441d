package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_user_status,priority:1"`
	VehicleID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_vehicle_status,priority:1"`
	StartDate        time.Time  `gorm:"not null;index"`
	EndDate          time.Time  `gorm:"not null;index"`
	Status           string     `gorm:"not null;size:20;index:idx_bookings_user_status,priority:2;index:idx_bookings_vehicle_status,priority:2"`
	PaymentStatus    string     `gorm:"not null;size:20;default:'pending'"`
	PricePerDayCents int64      `gorm:"not null"`
	TotalDays        int        `gorm:"not null"`
	TotalAmountCents int64      `gorm:"not null"`
	Currency         string     `gorm:"not null;size:3;default:'USD'"`
	PickupLocation   string     `gorm:"not null;size:255"`
	DropoffLocation  string     `gorm:"not null;size:255"`
	SpecialRequests  string     `gorm:"size:500"`
	Notes            string     `gorm:"size:1000"`
	CancelReason     string     `gorm:"size:500"`
	CancelledAt      *time.Time `gorm:""`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFrom(ctx, r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&BookingModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ListAll retrieves all bookings with pagination, optionally filtered by
// status (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	db := dbFrom(ctx, r.db).WithContext(ctx)

	query := db.Model(&BookingModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// CountOverlapping returns the number of bookings for the vehicle whose status
// is in statuses and whose interval conflicts with [start, end]. Edges count
// as conflicts: a booking ending at the instant another starts still overlaps.
func (r *GormBookingRepository) CountOverlapping(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, statuses []bookingDomain.BookingStatus) (int64, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	var count int64
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", statusStrings).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

// VehiclesHeldAt returns the IDs of vehicles holding at least one non-terminal
// booking that overlaps the given instant.
func (r *GormBookingRepository) VehiclesHeldAt(ctx context.Context, at time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Distinct("vehicle_id").
		Where("status IN ?", []string{
			string(bookingDomain.StatusPending),
			string(bookingDomain.StatusConfirmed),
			string(bookingDomain.StatusActive),
		}).
		Where("start_date <= ? AND end_date >= ?", at, at).
		Pluck("vehicle_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find held vehicles: %w", err)
	}
	return ids, nil
}

// FindDueForActivation returns confirmed bookings whose start date has passed.
func (r *GormBookingRepository) FindDueForActivation(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("status = ?", string(bookingDomain.StatusConfirmed)).
		Where("start_date <= ?", now).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings due for activation: %w", err)
	}

	bookings, _, err := toDomainBookings(models, 0)
	return bookings, err
}

// FindOverdueActive returns active bookings whose end date has passed.
func (r *GormBookingRepository) FindOverdueActive(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("status = ?", string(bookingDomain.StatusActive)).
		Where("end_date < ?", now).
		Order("end_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue active bookings: %w", err)
	}

	bookings, _, err := toDomainBookings(models, 0)
	return bookings, err
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := dbFrom(ctx, r.db).WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// TotalRevenueCents sums the total amount over completed bookings (admin).
func (r *GormBookingRepository) TotalRevenueCents(ctx context.Context) (int64, error) {
	var revenue int64
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Where("status = ?", string(bookingDomain.StatusCompleted)).
		Select("COALESCE(SUM(total_amount_cents), 0)").
		Scan(&revenue).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return revenue, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1 since
	// IncrementVersion was called before persisting).
	expectedVersion := bk.Version() - 1
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"notes":          model.Notes,
			"cancel_reason":  model.CancelReason,
			"cancelled_at":   model.CancelledAt,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.UserID,
		m.VehicleID,
		m.StartDate,
		m.EndDate,
		status,
		bookingDomain.PaymentStatus(m.PaymentStatus),
		m.PricePerDayCents,
		m.TotalDays,
		m.TotalAmountCents,
		m.Currency,
		m.PickupLocation,
		m.DropoffLocation,
		m.SpecialRequests,
		m.Notes,
		m.CancelReason,
		m.CancelledAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}
