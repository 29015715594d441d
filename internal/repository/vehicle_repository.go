package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Make             string    `gorm:"not null;size:100"`
	Model            string    `gorm:"not null;size:100"`
	Year             int       `gorm:"not null"`
	Category         string    `gorm:"not null;size:20;index"`
	Transmission     string    `gorm:"not null;size:20"`
	FuelType         string    `gorm:"not null;size:20"`
	Seats            int       `gorm:"not null"`
	PricePerDayCents int64     `gorm:"not null"`
	LicensePlate     string    `gorm:"uniqueIndex;not null;size:20"`
	Mileage          int       `gorm:"not null;default:0"`
	Location         string    `gorm:"not null;size:255"`
	Description      string    `gorm:"size:1000"`
	Available        bool      `gorm:"not null;default:true;index"`
	Active           bool      `gorm:"not null;default:true;index"`
	Version          int64     `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of VehicleRepository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// List retrieves active vehicles matching the filter with pagination.
func (r *GormVehicleRepository) List(ctx context.Context, f vehicleDomain.Filter, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	query := dbFrom(ctx, r.db).WithContext(ctx).Model(&VehicleModel{}).Where("active = ?", true)
	if f.Category != "" {
		query = query.Where("category = ?", string(f.Category))
	}
	if f.MaxPriceCents > 0 {
		query = query.Where("price_per_day_cents <= ?", f.MaxPriceCents)
	}
	if f.MinSeats > 0 {
		query = query.Where("seats >= ?", f.MinSeats)
	}
	if f.OnlyAvailable {
		query = query.Where("available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	var models []VehicleModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, total, nil
}

// ListActiveIDs returns the IDs of all active vehicles.
func (r *GormVehicleRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&VehicleModel{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active vehicle IDs: %w", err)
	}
	return ids, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)
	if err := dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// Update persists changes to an existing vehicle with optimistic locking.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	model := toVehicleModel(v)

	expectedVersion := v.Version() - 1
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"make":                model.Make,
			"model":               model.Model,
			"year":                model.Year,
			"category":            model.Category,
			"transmission":        model.Transmission,
			"fuel_type":           model.FuelType,
			"seats":               model.Seats,
			"price_per_day_cents": model.PricePerDayCents,
			"mileage":             model.Mileage,
			"location":            model.Location,
			"description":         model.Description,
			"available":           model.Available,
			"active":              model.Active,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("vehicle was modified by another transaction")
	}

	return nil
}

// SetAvailability writes the vehicle's available flag directly, bypassing the
// version check. It maintains the availability cache inside booking
// transactions and from the reconciliation job.
func (r *GormVehicleRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available":  available,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set vehicle availability: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("vehicle", id.String())
	}

	return nil
}

// --- Conversion Helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:               v.ID(),
		Make:             v.Make(),
		Model:            v.Model(),
		Year:             v.Year(),
		Category:         string(v.Category()),
		Transmission:     string(v.Transmission()),
		FuelType:         string(v.FuelType()),
		Seats:            v.Seats(),
		PricePerDayCents: v.PricePerDayCents(),
		LicensePlate:     v.LicensePlate(),
		Mileage:          v.Mileage(),
		Location:         v.Location(),
		Description:      v.Description(),
		Available:        v.Available(),
		Active:           v.Active(),
		Version:          v.Version(),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.Reconstruct(
		m.ID,
		m.Make,
		m.Model,
		m.Year,
		vehicleDomain.Category(m.Category),
		vehicleDomain.Transmission(m.Transmission),
		vehicleDomain.FuelType(m.FuelType),
		m.Seats,
		m.PricePerDayCents,
		m.LicensePlate,
		m.Mileage,
		m.Location,
		m.Description,
		m.Available,
		m.Active,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
