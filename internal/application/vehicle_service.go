package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// CreateVehicleRequest holds the data needed to add a vehicle to the catalog.
type CreateVehicleRequest struct {
	Make             string `json:"make" binding:"required"`
	Model            string `json:"model" binding:"required"`
	Year             int    `json:"year" binding:"required"`
	Category         string `json:"category" binding:"required"`
	Transmission     string `json:"transmission" binding:"required"`
	FuelType         string `json:"fuel_type" binding:"required"`
	Seats            int    `json:"seats" binding:"required"`
	PricePerDayCents int64  `json:"price_per_day_cents" binding:"required"`
	LicensePlate     string `json:"license_plate" binding:"required"`
	Mileage          int    `json:"mileage"`
	Location         string `json:"location" binding:"required"`
	Description      string `json:"description"`
}

// UpdateVehicleRequest holds partial catalog updates. Zero values are ignored.
type UpdateVehicleRequest struct {
	Make             string `json:"make"`
	Model            string `json:"model"`
	Year             int    `json:"year"`
	Category         string `json:"category"`
	Transmission     string `json:"transmission"`
	FuelType         string `json:"fuel_type"`
	Seats            int    `json:"seats"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
	Mileage          int    `json:"mileage"`
	Location         string `json:"location"`
	Description      string `json:"description"`
}

// VehicleFilter carries catalog listing filters from the transport layer.
type VehicleFilter struct {
	Category      string
	MaxPriceCents int64
	MinSeats      int
	OnlyAvailable bool
}

// VehicleDTO is the response representation of a catalog vehicle.
type VehicleDTO struct {
	ID               uuid.UUID `json:"id"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Year             int       `json:"year"`
	Category         string    `json:"category"`
	Transmission     string    `json:"transmission"`
	FuelType         string    `json:"fuel_type"`
	Seats            int       `json:"seats"`
	PricePerDayCents int64     `json:"price_per_day_cents"`
	LicensePlate     string    `json:"license_plate"`
	Mileage          int       `json:"mileage"`
	Location         string    `json:"location"`
	Description      string    `json:"description,omitempty"`
	Available        bool      `json:"available"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VehicleService manages the rental vehicle catalog.
type VehicleService struct {
	vehicles vehicleDomain.VehicleRepository
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicles vehicleDomain.VehicleRepository, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		vehicles: vehicles,
		logger:   logger,
	}
}

// CreateVehicle adds a new vehicle to the catalog (admin).
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(
		req.Make,
		req.Model,
		req.Year,
		vehicleDomain.Category(req.Category),
		vehicleDomain.Transmission(req.Transmission),
		vehicleDomain.FuelType(req.FuelType),
		req.Seats,
		req.PricePerDayCents,
		req.LicensePlate,
		req.Mileage,
		req.Location,
		req.Description,
	)
	if err != nil {
		return nil, err
	}

	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("vehicle added to catalog",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("license_plate", v.LicensePlate()),
	)

	result := toVehicleDTO(v)
	return &result, nil
}

// UpdateVehicle applies partial updates to a catalog vehicle (admin).
func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Active() {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}

	if req.Category != "" && !vehicleDomain.Category(req.Category).IsValid() {
		return nil, domain.NewValidationError("invalid vehicle category: " + req.Category)
	}
	if req.Transmission != "" && !vehicleDomain.Transmission(req.Transmission).IsValid() {
		return nil, domain.NewValidationError("invalid transmission type: " + req.Transmission)
	}
	if req.FuelType != "" && !vehicleDomain.FuelType(req.FuelType).IsValid() {
		return nil, domain.NewValidationError("invalid fuel type: " + req.FuelType)
	}

	v.Update(
		req.Make,
		req.Model,
		req.Year,
		vehicleDomain.Category(req.Category),
		vehicleDomain.Transmission(req.Transmission),
		vehicleDomain.FuelType(req.FuelType),
		req.Seats,
		req.PricePerDayCents,
		req.Mileage,
		req.Location,
		req.Description,
	)

	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// DeactivateVehicle removes a vehicle from the catalog without deleting its
// booking history (admin).
func (s *VehicleService) DeactivateVehicle(ctx context.Context, id uuid.UUID) error {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !v.Active() {
		return domain.NewNotFoundError("vehicle", id.String())
	}

	v.Deactivate()
	if err := s.vehicles.Update(ctx, v); err != nil {
		return err
	}

	s.logger.Info("vehicle deactivated", zap.String("vehicle_id", id.String()))
	return nil
}

// GetVehicle retrieves a single active catalog vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Active() {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}

	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles retrieves active catalog vehicles matching the filter.
func (s *VehicleService) ListVehicles(ctx context.Context, filter VehicleFilter, page, limit int) (*domain.PaginatedResult[VehicleDTO], error) {
	if filter.Category != "" && !vehicleDomain.Category(filter.Category).IsValid() {
		return nil, domain.NewValidationError("invalid vehicle category: " + filter.Category)
	}

	vehicles, total, err := s.vehicles.List(ctx, vehicleDomain.Filter{
		Category:      vehicleDomain.Category(filter.Category),
		MaxPriceCents: filter.MaxPriceCents,
		MinSeats:      filter.MinSeats,
		OnlyAvailable: filter.OnlyAvailable,
	}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
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
		Version:          v.Version(),
		CreatedAt:        v.CreatedAt(),
		UpdatedAt:        v.UpdatedAt(),
	}
}
