package booking

import (
	"math"
	"time"

	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
)

// Quote holds the derived pricing fields for a rental interval.
type Quote struct {
	TotalDays        int   `json:"total_days"`
	TotalAmountCents int64 `json:"total_amount_cents"`
}

// PricingStrategy computes the price of a rental interval at a given day rate.
type PricingStrategy interface {
	Quote(start, end time.Time, pricePerDayCents int64) (Quote, error)
}

// DailyRatePricing is the standard pricing: the rental spans
// ceil((end-start)/24h) billable days, each at the snapshotted day rate.
type DailyRatePricing struct{}

// NewDailyRatePricing creates the standard pricing strategy.
func NewDailyRatePricing() *DailyRatePricing {
	return &DailyRatePricing{}
}

// Quote computes the derived pricing fields for [start, end).
func (DailyRatePricing) Quote(start, end time.Time, pricePerDayCents int64) (Quote, error) {
	if !end.After(start) {
		return Quote{}, domain.NewValidationError("end date must be after start date")
	}
	if pricePerDayCents <= 0 {
		return Quote{}, domain.NewValidationError("price per day must be positive")
	}

	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	return Quote{
		TotalDays:        days,
		TotalAmountCents: int64(days) * pricePerDayCents,
	}, nil
}
