package vehicle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// Category classifies a vehicle in the rental catalog.
type Category string

const (
	CategoryEconomy  Category = "economy"
	CategoryCompact  Category = "compact"
	CategoryMidSize  Category = "mid_size"
	CategoryFullSize Category = "full_size"
	CategorySUV      Category = "suv"
	CategoryLuxury   Category = "luxury"
	CategorySports   Category = "sports"
)

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEconomy, CategoryCompact, CategoryMidSize, CategoryFullSize,
		CategorySUV, CategoryLuxury, CategorySports:
		return true
	}
	return false
}

// Transmission is the vehicle's gearbox type.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// IsValid returns true if the transmission type is recognized.
func (t Transmission) IsValid() bool {
	return t == TransmissionManual || t == TransmissionAutomatic
}

// FuelType is the vehicle's fuel type.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// IsValid returns true if the fuel type is recognized.
func (f FuelType) IsValid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

// Vehicle is the aggregate root for the rental catalog.
//
// The available flag is an imperatively maintained cache: it is mutated only
// by the booking lifecycle (and the reconciliation job) as a side effect of
// booking transitions, never derived at read time.
type Vehicle struct {
	id           uuid.UUID
	make_        string
	model        string
	year         int
	category     Category
	transmission Transmission
	fuelType     FuelType
	seats        int

	pricePerDayCents int64
	licensePlate     string
	mileage          int
	location         string
	description      string

	available bool
	active    bool

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewVehicle creates an active, available catalog vehicle with validated fields.
func NewVehicle(
	makeName, model string,
	year int,
	category Category,
	transmission Transmission,
	fuelType FuelType,
	seats int,
	pricePerDayCents int64,
	licensePlate string,
	mileage int,
	location, description string,
) (*Vehicle, error) {
	if makeName == "" {
		return nil, domain.NewValidationError("vehicle make is required")
	}
	if model == "" {
		return nil, domain.NewValidationError("vehicle model is required")
	}
	if year < 1990 || year > time.Now().Year()+1 {
		return nil, domain.NewValidationError("vehicle year is out of range")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("invalid vehicle category: " + string(category))
	}
	if !transmission.IsValid() {
		return nil, domain.NewValidationError("invalid transmission type: " + string(transmission))
	}
	if !fuelType.IsValid() {
		return nil, domain.NewValidationError("invalid fuel type: " + string(fuelType))
	}
	if seats < 2 || seats > 8 {
		return nil, domain.NewValidationError("seats must be between 2 and 8")
	}
	if pricePerDayCents <= 0 {
		return nil, domain.NewValidationError("price per day must be positive")
	}
	if licensePlate == "" {
		return nil, domain.NewValidationError("license plate is required")
	}
	if mileage < 0 {
		return nil, domain.NewValidationError("mileage cannot be negative")
	}
	if location == "" {
		return nil, domain.NewValidationError("vehicle location is required")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:               uuid.New(),
		make_:            makeName,
		model:            model,
		year:             year,
		category:         category,
		transmission:     transmission,
		fuelType:         fuelType,
		seats:            seats,
		pricePerDayCents: pricePerDayCents,
		licensePlate:     strings.ToUpper(licensePlate),
		mileage:          mileage,
		location:         location,
		description:      description,
		available:        true,
		active:           true,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Vehicle from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	makeName, model string,
	year int,
	category Category,
	transmission Transmission,
	fuelType FuelType,
	seats int,
	pricePerDayCents int64,
	licensePlate string,
	mileage int,
	location, description string,
	available, active bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:               id,
		make_:            makeName,
		model:            model,
		year:             year,
		category:         category,
		transmission:     transmission,
		fuelType:         fuelType,
		seats:            seats,
		pricePerDayCents: pricePerDayCents,
		licensePlate:     licensePlate,
		mileage:          mileage,
		location:         location,
		description:      description,
		available:        available,
		active:           active,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (v *Vehicle) ID() uuid.UUID              { return v.id }
func (v *Vehicle) Make() string               { return v.make_ }
func (v *Vehicle) Model() string              { return v.model }
func (v *Vehicle) Year() int                  { return v.year }
func (v *Vehicle) Category() Category         { return v.category }
func (v *Vehicle) Transmission() Transmission { return v.transmission }
func (v *Vehicle) FuelType() FuelType         { return v.fuelType }
func (v *Vehicle) Seats() int                 { return v.seats }
func (v *Vehicle) PricePerDayCents() int64    { return v.pricePerDayCents }
func (v *Vehicle) LicensePlate() string       { return v.licensePlate }
func (v *Vehicle) Mileage() int               { return v.mileage }
func (v *Vehicle) Location() string           { return v.location }
func (v *Vehicle) Description() string        { return v.description }
func (v *Vehicle) Available() bool            { return v.available }
func (v *Vehicle) Active() bool               { return v.active }
func (v *Vehicle) Version() int64             { return v.version }
func (v *Vehicle) CreatedAt() time.Time       { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time       { return v.updatedAt }

// --- Behavior ---

// IsBookable reports whether the vehicle can accept a new booking.
func (v *Vehicle) IsBookable() bool {
	return v.active && v.available
}

// MarkUnavailable flags the vehicle as held by a booking.
func (v *Vehicle) MarkUnavailable() {
	v.available = false
	v.version++
	v.updatedAt = time.Now().UTC()
}

// MarkAvailable flags the vehicle as free for booking.
func (v *Vehicle) MarkAvailable() {
	v.available = true
	v.version++
	v.updatedAt = time.Now().UTC()
}

// Update applies partial updates to the catalog fields.
func (v *Vehicle) Update(
	makeName, model string,
	year int,
	category Category,
	transmission Transmission,
	fuelType FuelType,
	seats int,
	pricePerDayCents int64,
	mileage int,
	location, description string,
) {
	if makeName != "" {
		v.make_ = makeName
	}
	if model != "" {
		v.model = model
	}
	if year > 0 {
		v.year = year
	}
	if category != "" {
		v.category = category
	}
	if transmission != "" {
		v.transmission = transmission
	}
	if fuelType != "" {
		v.fuelType = fuelType
	}
	if seats > 0 {
		v.seats = seats
	}
	if pricePerDayCents > 0 {
		v.pricePerDayCents = pricePerDayCents
	}
	if mileage > 0 {
		v.mileage = mileage
	}
	if location != "" {
		v.location = location
	}
	if description != "" {
		v.description = description
	}
	v.version++
	v.updatedAt = time.Now().UTC()
}

// Deactivate soft-deletes the vehicle from the catalog.
func (v *Vehicle) Deactivate() {
	v.active = false
	v.version++
	v.updatedAt = time.Now().UTC()
}
